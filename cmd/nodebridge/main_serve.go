package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/nodebridge-labs/nodebridge/internal/mcpadapter"
	"github.com/nodebridge-labs/nodebridge/internal/metrics"
	"github.com/nodebridge-labs/nodebridge/internal/telemetry"
	"github.com/nodebridge-labs/nodebridge/internal/version"
)

// serveCommand runs the MCP server over stdio, grounded on the teacher's
// internal/mcp/server.go (mcp.NewServer + server.Run(ctx, &mcp.StdioTransport{}))
// and main_server.go's graceful-shutdown pattern (signal.Notify,
// context.WithTimeout(10s) before tearing down).
var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Run the MCP server (get_node, plan_tasks) over stdio",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		shutdownTracing, err := telemetry.Init(context.Background(), cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("failed to init telemetry: %w", err)
		}

		svc, err := newService(cfg, c.String("design-api"))
		if err != nil {
			return err
		}
		defer svc.Cache.Close()

		server := mcp.NewServer(&mcp.Implementation{Name: "nodebridge", Version: version.Version}, nil)
		mcpadapter.Register(server, svc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reg := metrics.New()
		go func() {
			if err := reg.Serve(ctx, cfg.Telemetry.MetricsAddr); err != nil {
				fmt.Fprintln(os.Stderr, "nodebridge: metrics server:", err)
			}
		}()

		runErr := make(chan error, 1)
		go func() {
			runErr <- server.Run(ctx, &mcp.StdioTransport{})
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "nodebridge: received %v, shutting down\n", sig)
			cancel()
		case err := <-runErr:
			if err != nil {
				return fmt.Errorf("mcp server exited: %w", err)
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return shutdownTracing(shutdownCtx)
	},
}
