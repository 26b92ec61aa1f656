package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDL parses content and overlays its top-level blocks onto cfg.
// Unset fields keep whatever Default already populated, so a config file
// only needs to name the values it overrides.
func applyKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "cache":
			applyCacheBlock(n, &cfg.Cache)
		case "stream":
			applyStreamBlock(n, &cfg.Stream)
		case "verify":
			applyVerifyBlock(n, &cfg.Verify)
		case "planner":
			applyPlannerBlock(n, &cfg.Planner)
		case "telemetry":
			applyTelemetryBlock(n, &cfg.Telemetry)
		}
	}
	return nil
}

func applyCacheBlock(n *document.Node, c *CacheConfig) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_l1_entries":
			if v, ok := firstIntArg(cn); ok {
				c.MaxL1Entries = v
			}
		case "l2_max_bytes":
			if v, ok := firstIntArg(cn); ok {
				c.L2MaxBytes = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					c.L2MaxBytes = sz
				}
			}
		case "disk_dir":
			if s, ok := firstStringArg(cn); ok {
				c.DiskDir = s
			}
		case "version_dsn":
			if s, ok := firstStringArg(cn); ok {
				c.VersionDSN = s
			}
		case "watch_disk":
			if b, ok := firstBoolArg(cn); ok {
				c.WatchDisk = b
			}
		case "default_ttl":
			if s, ok := firstStringArg(cn); ok {
				if d, err := time.ParseDuration(s); err == nil {
					c.DefaultTTL = d
				}
			}
		}
	}
}

func applyStreamBlock(n *document.Node, s *StreamConfig) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "in_flight_limit":
			if v, ok := firstIntArg(cn); ok {
				s.InFlightLimit = v
			}
		case "default_ttl":
			if v, ok := firstStringArg(cn); ok {
				if d, err := time.ParseDuration(v); err == nil {
					s.DefaultTTL = d
				}
			}
		}
	}
}

func applyVerifyBlock(n *document.Node, v *VerifyConfig) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "target_score":
			if f, ok := firstFloatArg(cn); ok {
				v.TargetScore = f
			}
		case "max_iterations":
			if i, ok := firstIntArg(cn); ok {
				v.MaxIterations = i
			}
		case "viewport_width":
			if i, ok := firstIntArg(cn); ok {
				v.ViewportWidth = i
			}
		case "viewport_height":
			if i, ok := firstIntArg(cn); ok {
				v.ViewportHeight = i
			}
		}
	}
}

func applyPlannerBlock(n *document.Node, p *PlannerConfig) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_tasks":
			if i, ok := firstIntArg(cn); ok {
				p.MaxTasks = uint64(i)
			}
		case "replan_cron":
			if s, ok := firstStringArg(cn); ok {
				p.ReplanCron = s
			}
		}
	}
}

func applyTelemetryBlock(n *document.Node, t *TelemetryConfig) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "otlp_endpoint":
			if s, ok := firstStringArg(cn); ok {
				t.OTLPEndpoint = s
			}
		case "metrics_addr":
			if s, ok := firstStringArg(cn); ok {
				t.MetricsAddr = s
			}
		case "quiet":
			if b, ok := firstBoolArg(cn); ok {
				t.Quiet = b
			}
		case "debug_log_path":
			if s, ok := firstStringArg(cn); ok {
				t.DebugLogPath = s
			}
		}
	}
}

// The following AST-traversal helpers are grounded on the teacher's
// internal/config/kdl_config.go (nodeName/firstIntArg/firstStringArg/
// firstBoolArg/firstFloatArg), unchanged in shape since kdl-go's document
// model is the same regardless of schema.

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB", grounded on
// the teacher's kdl_config.go parseSize.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
