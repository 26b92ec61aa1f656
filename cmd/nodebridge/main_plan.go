package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
)

// planCommand runs the Task Planner against a single node and prints the
// resulting ROI-ordered plan as JSON, a one-shot CLI analog of the
// plan_tasks MCP tool in internal/mcpadapter.
var planCommand = &cli.Command{
	Name:  "plan",
	Usage: "Produce an ROI-ordered implementation plan for a design node subtree",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Required: true, Usage: "Design file key"},
		&cli.StringFlag{Name: "node", Required: true, Usage: "Root node id"},
		&cli.StringFlag{Name: "token", Required: true, Usage: "Design API access token"},
		&cli.Uint64Flag{Name: "depth", Usage: "Child depth to expand"},
		&cli.Uint64Flag{Name: "max-tasks", Usage: "Cap on emitted tasks (0 = unbounded)"},
		&cli.BoolFlag{Name: "recursive", Usage: "Recursively plan across the full subtree"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		svc, err := newService(cfg, c.String("design-api"))
		if err != nil {
			return err
		}
		defer svc.Cache.Close()

		maxTasks := c.Uint64("max-tasks")
		if maxTasks == 0 {
			maxTasks = cfg.Planner.MaxTasks
		}

		resp, err := svc.PlanTasks(context.Background(), codec.PlanTasksRequest{
			FileKey:   c.String("file"),
			NodeID:    c.String("node"),
			Token:     c.String("token"),
			Depth:     c.Uint64("depth"),
			MaxTasks:  maxTasks,
			Recursive: c.Bool("recursive"),
		})
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}
