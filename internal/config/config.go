// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/quantlab/stockpulse/internal/domain"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
	Decision DecisionConfig
}

// DecisionConfig is the single source of truth for every weighting and
// threshold constant used by the decision components. The dashboard this
// system replaced duplicated these numbers per UI card; here every consumer
// reads the same struct so two views cannot silently disagree.
type DecisionConfig struct {
	// Signal generation thresholds (percent change of predicted vs current price)
	StrongSignalChangePct float64 // above this (with confidence+sentiment support) -> STRONG_BUY/SELL
	SignalChangePct       float64 // above this -> BUY/SELL
	StrongSignalMinConf   float64 // minimum confidence for a STRONG label
	StrongSignalSentiment float64 // minimum |sentiment| for a STRONG label
	DefaultConfidence     float64 // used when the predictor reports none

	// Composite recommendation weights (must sum to 1.0)
	WeightForecast  float64
	WeightSentiment float64
	WeightTechnical float64
	WeightRisk      float64

	// Composite score thresholds
	StrongThreshold float64 // |score| above this -> STRONG_BUY/STRONG_SELL
	ActionThreshold float64 // |score| above this -> BUY/SELL
	HighConfidence  float64 // |score| above this (and risk != HIGH) -> HIGH confidence

	// Risk classifier
	RiskWindow          int     // rolling window length in periods
	PriceZScoreMedium   float64 // |z| above this -> price anomaly, MEDIUM
	PriceZScoreHigh     float64 // |z| above this -> price anomaly, HIGH
	VolatilityMultiple  float64 // volatility above this multiple of trailing average -> anomaly
	VolumeMultiple      float64 // volume above this multiple of trailing average -> anomaly
	SentimentShiftSigma float64 // |sentiment z| above this -> sentiment shift anomaly

	// Backtest
	DefaultInitialCapital float64
}

// DefaultDecisionConfig returns the production decision constants
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		StrongSignalChangePct: 2.0,
		SignalChangePct:       1.0,
		StrongSignalMinConf:   0.7,
		StrongSignalSentiment: 0.1,
		DefaultConfidence:     0.5,

		WeightForecast:  0.40,
		WeightSentiment: 0.20,
		WeightTechnical: 0.25,
		WeightRisk:      0.15,

		StrongThreshold: 0.50,
		ActionThreshold: 0.15,
		HighConfidence:  0.40,

		RiskWindow:          20,
		PriceZScoreMedium:   2.5,
		PriceZScoreHigh:     3.5,
		VolatilityMultiple:  1.5,
		VolumeMultiple:      3.0,
		SentimentShiftSigma: 2.0,

		DefaultInitialCapital: 10000,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKPULSE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Decision: DefaultDecisionConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the decision constants are internally consistent
func (c *Config) Validate() error {
	d := c.Decision

	weightSum := d.WeightForecast + d.WeightSentiment + d.WeightTechnical + d.WeightRisk
	if math.Abs(weightSum-1.0) > 0.001 {
		return domain.ValidationError{
			Field:   "decision.weights",
			Message: fmt.Sprintf("component weights must sum to 1.0, got %.4f", weightSum),
		}
	}

	if d.StrongThreshold <= d.ActionThreshold {
		return domain.ValidationError{
			Field:   "decision.thresholds",
			Message: fmt.Sprintf("strong threshold (%.2f) must exceed action threshold (%.2f)", d.StrongThreshold, d.ActionThreshold),
		}
	}

	if d.RiskWindow < 2 {
		return domain.ValidationError{
			Field:   "decision.risk_window",
			Message: fmt.Sprintf("risk window must be at least 2 periods, got %d", d.RiskWindow),
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
