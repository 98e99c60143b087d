package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the backend origin used when POLLS_API_URL is unset
const DefaultAPIURL = "https://smart-polls-backend-4.onrender.com"

// Config holds all configuration for the client and the stand-in backend
type Config struct {
	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Voter struct {
		Store string
		Path  string
	}

	LogLevel string

	DB struct {
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SSLMode    string
		SQLitePath string
	}

	Server struct {
		Port           string
		GinMode        string
		Environment    string
		StorageType    string
		MaxPollOptions int
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.API.BaseURL = NormalizeBaseURL(getEnv("POLLS_API_URL", DefaultAPIURL))
	config.API.Timeout = getEnvAsDuration("POLLS_HTTP_TIMEOUT", 15*time.Second)

	config.Voter.Store = strings.ToLower(getEnv("VOTER_STORE", "file"))
	config.Voter.Path = getEnv("VOTER_STORE_PATH", defaultVoterPath())

	config.LogLevel = getEnv("LOG_LEVEL", "info")

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "smartpolls")
	config.DB.Password = getEnv("DB_PASSWORD", "smartpolls_password")
	config.DB.Name = getEnv("DB_NAME", "smartpolls_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	config.DB.SQLitePath = getEnv("SQLITE_PATH", "smartpolls.db")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.Environment = getEnv("ENVIRONMENT", "development")
	config.Server.StorageType = strings.ToLower(getEnv("STORAGE_TYPE", "memory"))
	config.Server.MaxPollOptions = getEnvAsInt("MAX_POLL_OPTIONS", 6)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,DELETE,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Accept")

	return config
}

// GetDatabaseURL returns the postgres connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// NormalizeBaseURL strips trailing slashes and falls back to DefaultAPIURL
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return DefaultAPIURL
	}
	return trimmed
}

// SplitList splits a comma separated setting, dropping empty entries
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultVoterPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "smartpolls", "device.json")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
