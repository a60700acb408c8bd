package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, DefaultReconcileConfig(), cfg.Reconcile)
	assert.Equal(t, 60, cfg.Scoring.ReviewThreshold)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, []string{"txt", "text"}, cfg.Batch.Extensions)
	assert.True(t, cfg.Batch.SkipHidden)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RECON_SUM_RATIO", "0.03")
	t.Setenv("RECON_PRINTED_TOTAL_FLOOR", "500")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("BATCH_EXTENSIONS", "txt, ocr ,")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("RECON_BALANCE_ABS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 0.03, cfg.Reconcile.SumRatio)
	assert.Equal(t, int64(500), cfg.Reconcile.PrintedTotalFloor)
	assert.Equal(t, int64(5), cfg.Reconcile.BalanceAbs, "unparseable values keep the default")
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, []string{"txt", "ocr"}, cfg.Batch.Extensions)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	t.Run("overlay", func(t *testing.T) {
		cfg := &Config{Reconcile: DefaultReconcileConfig()}
		p := write("ok.yaml", "reconcile:\n  synthetic_max_ratio: 0.25\n  salvage_penalty: 20\nscoring:\n  review_threshold: 70\n")
		require.NoError(t, cfg.LoadPolicyFile(p))
		assert.Equal(t, 0.25, cfg.Reconcile.SyntheticMaxRatio)
		assert.Equal(t, 20, cfg.Reconcile.SalvagePenalty)
		assert.Equal(t, 70, cfg.Scoring.ReviewThreshold)
		assert.Equal(t, 0.02, cfg.Reconcile.SumRatio, "absent keys untouched")
	})

	t.Run("empty file", func(t *testing.T) {
		cfg := &Config{Reconcile: DefaultReconcileConfig()}
		require.NoError(t, cfg.LoadPolicyFile(write("empty.yaml", "")))
		assert.Equal(t, DefaultReconcileConfig(), cfg.Reconcile)
	})

	t.Run("unknown key", func(t *testing.T) {
		cfg := &Config{Reconcile: DefaultReconcileConfig()}
		err := cfg.LoadPolicyFile(write("bad.yaml", "reconcile:\n  sum_ratoi: 0.5\n"))
		var appErr *AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.LoadPolicyFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Reconcile: DefaultReconcileConfig(),
			Scoring:   ScoringConfig{ReviewThreshold: 60},
			Batch:     BatchConfig{Workers: 1},
			Log:       LogConfig{Level: "INFO"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"ratio above one", func(c *Config) { c.Reconcile.SumRatio = 1.5 }},
		{"zero ratio", func(c *Config) { c.Reconcile.BalanceRatio = 0 }},
		{"negative floor", func(c *Config) { c.Reconcile.PrintedTotalFloor = -1 }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }},
		{"large above max", func(c *Config) { c.Reconcile.LargeSyntheticRatio = 0.3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput), "%v", err)
		})
	}
}
