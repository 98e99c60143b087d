package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/response"
	"github.com/gravadigital/smartpolls/internal/services"
	"github.com/gravadigital/smartpolls/internal/storage"
)

// PollHandler serves the /api/polls endpoints
type PollHandler struct {
	service *services.PollService
	log     *log.Logger
}

// NewPollHandler returns a handler backed by service
func NewPollHandler(service *services.PollService) *PollHandler {
	return &PollHandler{
		service: service,
		log:     logger.Handler("poll"),
	}
}

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VoteRequest struct {
	OptionID string `json:"optionId"`
	VoterID  string `json:"voterId"`
}

type ResultsResponse struct {
	PollID string         `json:"pollId"`
	Votes  map[string]int `json:"votes"`
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload")
		return
	}

	created, err := h.service.CreatePoll(c.Request.Context(), req.Question, req.Options)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			response.BadRequestError(c, verr.Error())
			return
		}
		h.log.Error("Failed to create poll", "error", err)
		response.InternalServerError(c, "Failed to create poll")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPolls handles GET /api/polls
func (h *PollHandler) ListPolls(c *gin.Context) {
	polls, err := h.service.ListPolls(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list polls", "error", err)
		response.InternalServerError(c, "Failed to list polls")
		return
	}

	c.JSON(http.StatusOK, polls)
}

// GetPoll handles GET /api/polls/:id
func (h *PollHandler) GetPoll(c *gin.Context) {
	p, err := h.service.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, "get poll", err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeletePoll handles DELETE /api/polls/:id
func (h *PollHandler) DeletePoll(c *gin.Context) {
	if err := h.service.DeletePoll(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, "delete poll", err)
		return
	}

	response.NoContent(c)
}

// GetResults handles GET /api/polls/:id/results
func (h *PollHandler) GetResults(c *gin.Context) {
	results, err := h.service.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, "get results", err)
		return
	}

	c.JSON(http.StatusOK, ResultsResponse{PollID: results.PollID, Votes: results.Votes})
}

// Vote handles POST /api/polls/:id/vote. Rejected ballots are answered
// with 200 and the reason code in message.
func (h *PollHandler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload")
		return
	}

	pollID := c.Param("id")
	outcome, err := h.service.Vote(c.Request.Context(), pollID, req.OptionID, req.VoterID)
	if err != nil {
		if errors.Is(err, services.ErrVoterRequired) {
			response.BadRequestError(c, err.Error())
			return
		}
		h.log.Error("Failed to record vote", "poll_id", pollID, "error", err)
		response.InternalServerError(c, "Failed to record vote")
		return
	}

	if !outcome.OK {
		response.VoteRejected(c, outcome.Reason.String())
		return
	}
	response.VoteAccepted(c)
}

func (h *PollHandler) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, storage.ErrPollNotFound) {
		response.NotFoundError(c, "Poll not found")
		return
	}

	h.log.Error("Failed to "+op, "error", err)
	response.InternalServerError(c, "Failed to "+op)
}
