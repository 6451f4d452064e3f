package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cfg holds all runtime configuration loaded from environment variables.
// Every variable is optional; missing values fall back to the defaults below.
type Cfg struct {
	// Completion runtime used for keyword tagging.
	LLMBaseURL string        // RESEARCH_LLM_BASE_URL=https://api.openai.com/v1
	LLMAPIKey  string        // RESEARCH_LLM_API_KEY=sk-...
	LLMModel   string        // RESEARCH_LLM_MODEL=gpt-3.5-turbo
	LLMTimeout time.Duration // RESEARCH_LLM_TIMEOUT_SECONDS=120

	// Completion cache. An empty address disables caching entirely.
	RedisAddr string        // RESEARCH_REDIS_ADDR=localhost:6379
	CacheTTL  time.Duration // RESEARCH_CACHE_TTL_SECONDS=0 (0 = keep forever)

	// Fine-tune trainer sidecar.
	TrainerBaseURL string // RESEARCH_TRAINER_BASE_URL=http://localhost:8100
	TrainerAPIKey  string // RESEARCH_TRAINER_API_KEY=...

	// Server
	ListenAddr string // RESEARCH_LISTEN_ADDR=:8084
	LogLevel   string // RESEARCH_LOG_LEVEL=info
}

// Load reads .env (if present) then environment variables and returns Cfg.
func Load() *Cfg {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	return &Cfg{
		LLMBaseURL:     getenv("RESEARCH_LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:      getenv("RESEARCH_LLM_API_KEY", ""),
		LLMModel:       getenv("RESEARCH_LLM_MODEL", "gpt-3.5-turbo"),
		LLMTimeout:     getseconds("RESEARCH_LLM_TIMEOUT_SECONDS", 120),
		RedisAddr:      getenv("RESEARCH_REDIS_ADDR", ""),
		CacheTTL:       getseconds("RESEARCH_CACHE_TTL_SECONDS", 0),
		TrainerBaseURL: getenv("RESEARCH_TRAINER_BASE_URL", "http://localhost:8100"),
		TrainerAPIKey:  getenv("RESEARCH_TRAINER_API_KEY", ""),
		ListenAddr:     getenv("RESEARCH_LISTEN_ADDR", ":8084"),
		LogLevel:       getenv("RESEARCH_LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getseconds reads a whole-seconds value. Unparsable or negative input falls
// back rather than erroring so a bad variable never blocks startup.
func getseconds(key string, fallback int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * time.Second
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(n) * time.Second
}
