package config

import (
	"fmt"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
)

// Validator validates a Config and fills in any zero-valued fields a
// config file left unset, grounded on the teacher's
// internal/config/validator.go (ValidateAndSetDefaults, per-section
// validate* methods, setSmartDefaults).
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and applies smart defaults,
// returning a typed *errs.Error (errs.KindParse — configuration is parsed
// input, spec.md §7) on the first violation found.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateCache(&cfg.Cache); err != nil {
		return errs.New(errs.KindParse, "config.cache", err)
	}
	if err := v.validateStream(&cfg.Stream); err != nil {
		return errs.New(errs.KindParse, "config.stream", err)
	}
	if err := v.validateVerify(&cfg.Verify); err != nil {
		return errs.New(errs.KindParse, "config.verify", err)
	}
	if err := v.validatePlanner(&cfg.Planner); err != nil {
		return errs.New(errs.KindParse, "config.planner", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateCache(c *CacheConfig) error {
	if c.MaxL1Entries <= 0 {
		return fmt.Errorf("cache.max_l1_entries must be positive, got %d", c.MaxL1Entries)
	}
	if c.L2MaxBytes <= 0 {
		return fmt.Errorf("cache.l2_max_bytes must be positive, got %d", c.L2MaxBytes)
	}
	if c.DiskDir == "" {
		return fmt.Errorf("cache.disk_dir cannot be empty")
	}
	return nil
}

func (v *Validator) validateStream(s *StreamConfig) error {
	if s.InFlightLimit < 0 {
		return fmt.Errorf("stream.in_flight_limit cannot be negative, got %d", s.InFlightLimit)
	}
	return nil
}

func (v *Validator) validateVerify(vc *VerifyConfig) error {
	if vc.TargetScore <= 0 || vc.TargetScore > 1 {
		return fmt.Errorf("verify.target_score must be in (0, 1], got %v", vc.TargetScore)
	}
	if vc.MaxIterations <= 0 {
		return fmt.Errorf("verify.max_iterations must be positive, got %d", vc.MaxIterations)
	}
	if vc.ViewportWidth <= 0 || vc.ViewportHeight <= 0 {
		return fmt.Errorf("verify.viewport_width/height must be positive, got %dx%d", vc.ViewportWidth, vc.ViewportHeight)
	}
	return nil
}

func (v *Validator) validatePlanner(p *PlannerConfig) error {
	// MaxTasks == 0 means unbounded (planner.Config contract); nothing to
	// reject there. ReplanCron is validated lazily by
	// planner.parseCronExpressionUTC when a Scheduler actually starts, so
	// a bad expression fails at startup rather than at config load.
	return nil
}

// setSmartDefaults fills in zero-valued fields that Default already
// populates for a from-scratch Config, so a partially-specified config
// file (e.g. one with only a "verify" block) doesn't zero out the rest.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Stream.InFlightLimit == 0 {
		cfg.Stream.InFlightLimit = 1
	}
	if cfg.Telemetry.MetricsAddr == "" {
		cfg.Telemetry.MetricsAddr = ":9090"
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
