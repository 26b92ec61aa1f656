package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
)

func validConfig() *Config {
	cfg := Default("/tmp/nb-cache")
	return &cfg
}

func TestValidateAndSetDefaultsAcceptsDefaultConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateAndSetDefaultsFillsZeroedStreamAndTelemetry(t *testing.T) {
	cfg := validConfig()
	cfg.Stream.InFlightLimit = 0
	cfg.Telemetry.MetricsAddr = ""

	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))
	assert.Equal(t, 1, cfg.Stream.InFlightLimit)
	assert.Equal(t, ":9090", cfg.Telemetry.MetricsAddr)
}

func TestValidateCacheRejectsNonPositiveBounds(t *testing.T) {
	v := NewValidator()
	cfg := validConfig()
	cfg.Cache.MaxL1Entries = 0
	err := v.ValidateAndSetDefaults(cfg)
	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.KindParse, typed.Kind)
}

func TestValidateCacheRejectsEmptyDiskDir(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.DiskDir = ""
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateStreamRejectsNegativeInFlightLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Stream.InFlightLimit = -1
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateVerifyRejectsOutOfRangeTargetScore(t *testing.T) {
	cfg := validConfig()
	cfg.Verify.TargetScore = 1.5
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))

	cfg = validConfig()
	cfg.Verify.TargetScore = 0
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateVerifyRejectsNonPositiveViewport(t *testing.T) {
	cfg := validConfig()
	cfg.Verify.ViewportWidth = 0
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateVerifyRejectsNonPositiveMaxIterations(t *testing.T) {
	cfg := validConfig()
	cfg.Verify.MaxIterations = 0
	assert.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateConfigConvenienceFunction(t *testing.T) {
	require.NoError(t, ValidateConfig(validConfig()))

	bad := validConfig()
	bad.Verify.TargetScore = -1
	assert.Error(t, ValidateConfig(bad))
}

func BenchmarkValidateAndSetDefaults(b *testing.B) {
	validator := NewValidator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := validConfig()
		_ = validator.ValidateAndSetDefaults(cfg)
	}
}
