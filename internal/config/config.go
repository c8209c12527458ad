package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Copilot   CopilotConfig
	Workspace WorkspaceConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Mode            string // "debug", "release" or "test"
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
	EnableCORS      bool
	CORSOrigins     []string
	RequestLogging  bool
}

type AuthConfig struct {
	APIKey string // SECURITY: Must be set via environment variable; empty disables auth
}

type CopilotConfig struct {
	CLIPath       string
	DefaultModel  string
	Timeout       time.Duration
	MaxConcurrent int // 0 disables the cap
	GithubToken   string
}

type WorkspaceConfig struct {
	MaxFileSize int64
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            getIntEnv("PORT", 8080),
			Mode:            getEnv("GIN_MODE", "release"),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 300*time.Second),
			IdleTimeout:     getDurationEnv("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getInt64Env("MAX_BODY_SIZE", 10*1024*1024),
			EnableCORS:      getBoolEnv("ENABLE_CORS", false),
			CORSOrigins:     getEnvSlice("CORS_ORIGINS", []string{"*"}),
			RequestLogging:  getBoolEnv("REQUEST_LOGGING", true),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Copilot: CopilotConfig{
			CLIPath:       getEnv("COPILOT_PATH", "copilot"),
			DefaultModel:  getEnv("COPILOT_MODEL", "claude-sonnet-4"),
			Timeout:       getDurationEnv("COPILOT_TIMEOUT", 300*time.Second),
			MaxConcurrent: getIntEnv("COPILOT_MAX_CONCURRENT", 4),
			GithubToken:   getEnv("GH_TOKEN", getEnv("GITHUB_TOKEN", "")),
		},
		Workspace: WorkspaceConfig{
			MaxFileSize: getInt64Env("WORKSPACE_MAX_FILE_SIZE", 1024*1024),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode: %q", c.Server.Mode)
	}
	if c.Copilot.CLIPath == "" {
		return fmt.Errorf("copilot CLI path must not be empty")
	}
	if c.Copilot.Timeout <= 0 {
		return fmt.Errorf("copilot timeout must be positive, got %s", c.Copilot.Timeout)
	}
	if c.Copilot.MaxConcurrent < 0 {
		return fmt.Errorf("copilot max concurrent must not be negative, got %d", c.Copilot.MaxConcurrent)
	}
	if c.Workspace.MaxFileSize <= 0 {
		return fmt.Errorf("workspace max file size must be positive, got %d", c.Workspace.MaxFileSize)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go duration strings ("300s", "5m") and bare
// integers, which are interpreted as seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
