// Package config loads nodebridge's KDL configuration file (spec.md §4.6,
// SPEC_FULL.md §4.6): one top-level block per subsystem —
// cache, stream, verify, planner, telemetry — grounded on the teacher's
// internal/config/kdl_config.go AST-traversal idiom, retargeted from the
// teacher's code-indexing schema to this server's subsystems.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// FileName is the configuration file nodebridge looks for in a project
// root, mirroring the teacher's ".lci.kdl" convention.
const FileName = "nodebridge.kdl"

// CacheConfig mirrors cache.Config (spec.md §4.1).
type CacheConfig struct {
	MaxL1Entries int
	L2MaxBytes   int64
	DiskDir      string
	VersionDSN   string
	WatchDisk    bool
	DefaultTTL   time.Duration
}

// StreamConfig mirrors the Streaming Node Service's tunables (spec.md §4.2,
// §5: "one outstanding API call at a time by default... may be raised by
// configuration").
type StreamConfig struct {
	InFlightLimit int
	DefaultTTL    time.Duration
}

// VerifyConfig mirrors verify.Config (spec.md §4.4 Inputs).
type VerifyConfig struct {
	TargetScore    float64
	MaxIterations  int
	ViewportWidth  int
	ViewportHeight int
}

// PlannerConfig mirrors planner.Config plus the scheduled re-plan cron
// expression (spec.md §4.5 "Scheduling", SPEC_FULL.md §4.5).
type PlannerConfig struct {
	MaxTasks   uint64
	ReplanCron string // empty disables scheduled re-planning
}

// TelemetryConfig configures the ambient OpenTelemetry and Prometheus
// exposition (SPEC_FULL.md §4.6 "Metrics exposition").
type TelemetryConfig struct {
	OTLPEndpoint string // empty disables span export
	MetricsAddr  string // address for the /metrics listener, e.g. ":9090"
	Quiet        bool   // obslog.QuietMode-equivalent: suppress stdout logging
	DebugLogPath string
}

// Config is the fully-resolved nodebridge configuration.
type Config struct {
	Cache     CacheConfig
	Stream    StreamConfig
	Verify    VerifyConfig
	Planner   PlannerConfig
	Telemetry TelemetryConfig
}

// Default returns the built-in defaults, matching cache.DefaultConfig and verify.DefaultConfig so a config file is
// never required to run the server.
func Default(diskDir string) Config {
	return Config{
		Cache: CacheConfig{
			MaxL1Entries: 400,
			L2MaxBytes:   200 << 20,
			DiskDir:      diskDir,
			VersionDSN:   "file:" + filepath.Join(diskDir, "meta.db"),
			WatchDisk:    true,
			DefaultTTL:   time.Hour,
		},
		Stream: StreamConfig{
			InFlightLimit: 1,
			DefaultTTL:    time.Hour,
		},
		Verify: VerifyConfig{
			TargetScore:    0.99,
			MaxIterations:  5,
			ViewportWidth:  375,
			ViewportHeight: 812,
		},
		Planner: PlannerConfig{
			MaxTasks: 0,
		},
		Telemetry: TelemetryConfig{
			MetricsAddr: ":9090",
		},
	}
}

// Load reads FileName from root, falling back to
// Default(root/.nodebridge-cache) untouched when no config file is present.
func Load(root string) (*Config, error) {
	cfg := Default(filepath.Join(root, ".nodebridge-cache"))

	path := filepath.Join(root, FileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := applyKDL(string(content), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
