package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/handlers"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/middleware/requestlog"
	"github.com/gravadigital/smartpolls/internal/services"
	"github.com/gravadigital/smartpolls/internal/storage"
	"github.com/gravadigital/smartpolls/internal/validation"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	store      storage.PollStore
}

// New creates a new server instance
func New(cfg *config.Config, store storage.PollStore) *Server {
	return &Server{
		config: cfg,
		store:  store,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.Router(),

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.HTTP().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router configures the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	if s.config.Server.Environment == "production" || s.config.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(requestlog.New(logger.HTTP()))
	router.Use(gin.Recovery())
	router.Use(cors.New(s.corsConfig()))

	pollService := services.NewPollService(s.store, validation.NewPollValidation(s.config.Server.MaxPollOptions))
	pollHandler := handlers.NewPollHandler(pollService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Smart Polls API is running",
			"status":  "healthy",
		})
	})

	router.GET("/health", s.health)

	s.setupAPIRoutes(router, pollHandler)

	return router
}

// health reports storage health for load balancers
func (s *Server) health(c *gin.Context) {
	if err := s.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"storage": s.config.Server.StorageType,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"storage": s.config.Server.StorageType,
	})
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if methods := config.SplitList(s.config.CORS.AllowMethods); len(methods) > 0 {
		corsConfig.AllowMethods = methods
	}
	if headers := config.SplitList(s.config.CORS.AllowHeaders); len(headers) > 0 {
		corsConfig.AllowHeaders = headers
	}

	origins := config.SplitList(s.config.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	return corsConfig
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(router *gin.Engine, pollHandler *handlers.PollHandler) {
	api := router.Group("/api")
	{
		polls := api.Group("/polls")
		{
			polls.GET("", pollHandler.ListPolls)
			polls.POST("", pollHandler.CreatePoll)
			polls.GET("/:id", pollHandler.GetPoll)
			polls.DELETE("/:id", pollHandler.DeletePoll)
			polls.GET("/:id/results", pollHandler.GetResults)
			polls.POST("/:id/vote", pollHandler.Vote)
		}
	}
}
