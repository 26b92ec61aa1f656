package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/config"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/stream"
	"github.com/nodebridge-labs/nodebridge/internal/version"
)

// loadConfig reads nodebridge.kdl from root (or its defaults if absent)
// and validates it, grounded on the teacher's loadConfigWithOverrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", root, err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService builds the Node Cache and a Streaming Node Service wired to
// the real HTTP design API client, for the plan/serve commands.
func newService(cfg *config.Config, designAPIBaseURL string) (*stream.Service, error) {
	c, err := cache.New(cache.Config{
		MaxL1Entries: cfg.Cache.MaxL1Entries,
		L2MaxBytes:   cfg.Cache.L2MaxBytes,
		DiskDir:      cfg.Cache.DiskDir,
		DefaultTTL:   cfg.Cache.DefaultTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	client := designapi.NewHTTPClient(designAPIBaseURL)
	svc := stream.New(c, client)
	svc.InFlightLimit = cfg.Stream.InFlightLimit
	svc.TTL = cfg.Stream.DefaultTTL
	return svc, nil
}

func main() {
	app := &cli.App{
		Name:                   "nodebridge",
		Usage:                  "Streams Figma-style design node subtrees to MCP clients with a local cache, a visual verification loop, and a task planner",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root holding nodebridge.kdl and the on-disk cache (defaults to the working directory)",
			},
			&cli.StringFlag{
				Name:  "design-api",
				Usage: "Base URL of the external design API",
				Value: "https://api.figma.com",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress diagnostic log output",
			},
		},
		Before: func(c *cli.Context) error {
			obslog.SetQuietMode(c.Bool("quiet"))
			return nil
		},
		Commands: []*cli.Command{
			serveCommand,
			planCommand,
			verifyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "nodebridge:", err)
		os.Exit(1)
	}
}
