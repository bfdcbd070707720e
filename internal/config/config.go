package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// #region types

// Weights holds the per-metric weights of the overall score.
// Validate rejects sets that do not sum to 1.0.
type Weights struct {
	WidgetCount float64
	Relevance   float64
	Accuracy    float64
	Quality     float64
	Latency     float64
}

// Config holds all harness configuration. Built once, passed into
// constructors, never mutated.
type Config struct {
	// Backend endpoints
	APIBaseURL  string
	FrontendURL string
	FeedbackKey string // optional X-Feedback-Key header value

	// Network bounds
	RequestTimeout time.Duration // data calls
	ProbeTimeout   time.Duration // liveness probes

	// Scoring
	EvalThreshold float64 // up/down boundary on the overall score
	LatencyBudget time.Duration
	Weights       Weights

	// Training cycle
	FeedbackCooldown  time.Duration // pause between feedback submissions
	PollInterval      time.Duration // training-wait poll cadence
	PollDeadline      time.Duration // training-wait deadline
	DPOPairsThreshold int           // pairs required before approving a run

	// Persistence
	DBPath string
}

// #endregion types

// #region defaults

// DefaultConfig returns the built-in defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:        "http://localhost:8100",
		FrontendURL:       "http://localhost:5173",
		RequestTimeout:    60 * time.Second,
		ProbeTimeout:      5 * time.Second,
		EvalThreshold:     0.6,
		LatencyBudget:     8000 * time.Millisecond,
		Weights:           DefaultWeights(),
		FeedbackCooldown:  2000 * time.Millisecond,
		PollInterval:      15 * time.Second,
		PollDeadline:      600 * time.Second,
		DPOPairsThreshold: 50,
		DBPath:            "harness_history.db",
	}
}

// DefaultWeights returns the standard metric weighting.
func DefaultWeights() Weights {
	return Weights{
		WidgetCount: 0.15,
		Relevance:   0.35,
		Accuracy:    0.25,
		Quality:     0.15,
		Latency:     0.10,
	}
}

// #endregion defaults

// #region load

// Load builds a Config from defaults overridden by environment variables.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.APIBaseURL = getEnv("HARNESS_API_URL", cfg.APIBaseURL)
	cfg.FrontendURL = getEnv("HARNESS_FRONTEND_URL", cfg.FrontendURL)
	cfg.FeedbackKey = getEnv("HARNESS_FEEDBACK_KEY", "")
	cfg.RequestTimeout = getEnvAsDuration("HARNESS_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ProbeTimeout = getEnvAsDuration("HARNESS_PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.EvalThreshold = getEnvAsFloat("HARNESS_EVAL_THRESHOLD", cfg.EvalThreshold)
	cfg.LatencyBudget = getEnvAsDuration("HARNESS_LATENCY_BUDGET", cfg.LatencyBudget)
	cfg.FeedbackCooldown = getEnvAsDuration("HARNESS_FEEDBACK_COOLDOWN", cfg.FeedbackCooldown)
	cfg.PollInterval = getEnvAsDuration("HARNESS_POLL_INTERVAL", cfg.PollInterval)
	cfg.PollDeadline = getEnvAsDuration("HARNESS_POLL_DEADLINE", cfg.PollDeadline)
	cfg.DPOPairsThreshold = getEnvAsInt("HARNESS_DPO_PAIRS_THRESHOLD", cfg.DPOPairsThreshold)
	cfg.DBPath = getEnv("HARNESS_DB", cfg.DBPath)

	cfg.Weights.WidgetCount = getEnvAsFloat("HARNESS_WEIGHT_WIDGET_COUNT", cfg.Weights.WidgetCount)
	cfg.Weights.Relevance = getEnvAsFloat("HARNESS_WEIGHT_RELEVANCE", cfg.Weights.Relevance)
	cfg.Weights.Accuracy = getEnvAsFloat("HARNESS_WEIGHT_ACCURACY", cfg.Weights.Accuracy)
	cfg.Weights.Quality = getEnvAsFloat("HARNESS_WEIGHT_QUALITY", cfg.Weights.Quality)
	cfg.Weights.Latency = getEnvAsFloat("HARNESS_WEIGHT_LATENCY", cfg.Weights.Latency)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion load

// #region validate

// Validate checks invariants that would silently corrupt scoring.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is empty")
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.EvalThreshold < 0 || c.EvalThreshold > 1 {
		return fmt.Errorf("eval threshold %.2f outside [0,1]", c.EvalThreshold)
	}
	if c.LatencyBudget <= 0 {
		return fmt.Errorf("latency budget must be positive")
	}
	return nil
}

// Validate checks that the weights sum to 1.0 (within 1e-6) and are
// individually non-negative.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"widget_count": w.WidgetCount,
		"relevance":    w.Relevance,
		"accuracy":     w.Accuracy,
		"quality":      w.Quality,
		"latency":      w.Latency,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative", name)
		}
	}
	sum := w.WidgetCount + w.Relevance + w.Accuracy + w.Quality + w.Latency
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %.6f, want 1.0", sum)
	}
	return nil
}

// #endregion validate

// #region env-helpers

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvAsDuration accepts Go duration syntax ("15s") or a bare
// millisecond count ("15000").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// #endregion env-helpers
