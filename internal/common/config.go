package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Reconcile ReconcileConfig
	Scoring   ScoringConfig
	Batch     BatchConfig
	Log       LogConfig
}

// ReconcileConfig holds the named tolerances used by the reconciliation engine.
// Ratios are fractions (0.02 == 2%), amounts are minor units.
type ReconcileConfig struct {
	LineItemAbs            int64   `yaml:"line_item_abs"`
	LineItemRatio          float64 `yaml:"line_item_ratio"`
	SumRatio               float64 `yaml:"sum_ratio"`
	ExcessiveVarianceRatio float64 `yaml:"excessive_variance_ratio"`
	TotalsEquationRatio    float64 `yaml:"totals_equation_ratio"`
	BalanceAbs             int64   `yaml:"balance_abs"`
	BalanceRatio           float64 `yaml:"balance_ratio"`
	LargeSyntheticRatio    float64 `yaml:"large_synthetic_ratio"`
	SyntheticMaxRatio      float64 `yaml:"synthetic_max_ratio"`
	SalvageMatchRatio      float64 `yaml:"salvage_match_ratio"`
	SalvageDivergenceRatio float64 `yaml:"salvage_divergence_ratio"`
	PrintedTotalFloor      int64   `yaml:"printed_total_floor"`
	PrintedTotalMinRatio   float64 `yaml:"printed_total_min_ratio"`
	SalvagePenalty         int     `yaml:"salvage_penalty"`
}

// ScoringConfig holds confidence scoring thresholds.
type ScoringConfig struct {
	ReviewThreshold int `yaml:"review_threshold"`
}

// BatchConfig holds directory batch settings.
type BatchConfig struct {
	Workers    int
	Extensions []string
	SkipHidden bool
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
	JSON  bool
}

// DefaultReconcileConfig returns the stock tolerance set.
func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		LineItemAbs:            2,
		LineItemRatio:          0.005,
		SumRatio:               0.02,
		ExcessiveVarianceRatio: 0.10,
		TotalsEquationRatio:    0.01,
		BalanceAbs:             5,
		BalanceRatio:           0.005,
		LargeSyntheticRatio:    0.10,
		SyntheticMaxRatio:      0.20,
		SalvageMatchRatio:      0.05,
		SalvageDivergenceRatio: 0.50,
		PrintedTotalFloor:      1000,
		PrintedTotalMinRatio:   0.05,
		SalvagePenalty:         15,
	}
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real env vars win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	def := DefaultReconcileConfig()
	return &Config{
		Reconcile: ReconcileConfig{
			LineItemAbs:            getEnvAsInt64("RECON_LINE_ITEM_ABS", def.LineItemAbs),
			LineItemRatio:          getEnvAsFloat64("RECON_LINE_ITEM_RATIO", def.LineItemRatio),
			SumRatio:               getEnvAsFloat64("RECON_SUM_RATIO", def.SumRatio),
			ExcessiveVarianceRatio: getEnvAsFloat64("RECON_EXCESSIVE_VARIANCE_RATIO", def.ExcessiveVarianceRatio),
			TotalsEquationRatio:    getEnvAsFloat64("RECON_TOTALS_EQUATION_RATIO", def.TotalsEquationRatio),
			BalanceAbs:             getEnvAsInt64("RECON_BALANCE_ABS", def.BalanceAbs),
			BalanceRatio:           getEnvAsFloat64("RECON_BALANCE_RATIO", def.BalanceRatio),
			LargeSyntheticRatio:    getEnvAsFloat64("RECON_LARGE_SYNTHETIC_RATIO", def.LargeSyntheticRatio),
			SyntheticMaxRatio:      getEnvAsFloat64("RECON_SYNTHETIC_MAX_RATIO", def.SyntheticMaxRatio),
			SalvageMatchRatio:      getEnvAsFloat64("RECON_SALVAGE_MATCH_RATIO", def.SalvageMatchRatio),
			SalvageDivergenceRatio: getEnvAsFloat64("RECON_SALVAGE_DIVERGENCE_RATIO", def.SalvageDivergenceRatio),
			PrintedTotalFloor:      getEnvAsInt64("RECON_PRINTED_TOTAL_FLOOR", def.PrintedTotalFloor),
			PrintedTotalMinRatio:   getEnvAsFloat64("RECON_PRINTED_TOTAL_MIN_RATIO", def.PrintedTotalMinRatio),
			SalvagePenalty:         getEnvAsInt("RECON_SALVAGE_PENALTY", def.SalvagePenalty),
		},
		Scoring: ScoringConfig{
			ReviewThreshold: getEnvAsInt("SCORE_REVIEW_THRESHOLD", 60),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			Extensions: getEnvAsList("BATCH_EXTENSIONS", []string{"txt", "text"}),
			SkipHidden: getEnvAsBool("BATCH_SKIP_HIDDEN", true),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", false),
		},
	}
}

// LoadPolicyFile overlays tolerance overrides from a YAML file onto c.
// Keys absent from the file keep their current values; unknown keys are rejected.
func (c *Config) LoadPolicyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewAppError("CONFIG_ERROR", fmt.Sprintf("policy file %s not found", path), ErrInvalidInput)
		}
		return WrapError(err, "read policy file")
	}

	doc := struct {
		Reconcile *ReconcileConfig `yaml:"reconcile"`
		Scoring   *ScoringConfig   `yaml:"scoring"`
	}{
		Reconcile: &c.Reconcile,
		Scoring:   &c.Scoring,
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return NewAppError("CONFIG_ERROR", "parse policy file", err)
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	r := c.Reconcile
	v := NewValidator()
	v.Field("line_item_abs", r.LineItemAbs, NonNegative).
		Field("line_item_ratio", r.LineItemRatio, Ratio).
		Field("sum_ratio", r.SumRatio, Ratio).
		Field("excessive_variance_ratio", r.ExcessiveVarianceRatio, Ratio).
		Field("totals_equation_ratio", r.TotalsEquationRatio, Ratio).
		Field("balance_abs", r.BalanceAbs, NonNegative).
		Field("balance_ratio", r.BalanceRatio, Ratio).
		Field("large_synthetic_ratio", r.LargeSyntheticRatio, Ratio).
		Field("synthetic_max_ratio", r.SyntheticMaxRatio, Ratio).
		Field("salvage_match_ratio", r.SalvageMatchRatio, Ratio).
		Field("salvage_divergence_ratio", r.SalvageDivergenceRatio, Ratio).
		Field("printed_total_floor", r.PrintedTotalFloor, NonNegative).
		Field("printed_total_min_ratio", r.PrintedTotalMinRatio, Ratio).
		Field("salvage_penalty", r.SalvagePenalty, NonNegative).
		Field("review_threshold", c.Scoring.ReviewThreshold, Positive).
		Field("workers", c.Batch.Workers, Positive).
		Field("log_level", c.Log.Level, OneOf("debug", "info", "warn", "error"))

	if err := v.Error(); err != nil {
		return err
	}
	if r.LargeSyntheticRatio > r.SyntheticMaxRatio {
		return NewAppError("CONFIG_ERROR", "large_synthetic_ratio must not exceed synthetic_max_ratio", ErrInvalidInput)
	}
	return nil
}
