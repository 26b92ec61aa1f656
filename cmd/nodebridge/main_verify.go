package main

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nodebridge-labs/nodebridge/internal/display"
	"github.com/nodebridge-labs/nodebridge/internal/verify"
)

// verifyCommand drives the Visual Verification Loop from the command line
// against a reference PNG and a starting markup file.
var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "Run the Visual Verification Loop against a reference screenshot and candidate markup",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "reference", Required: true, Usage: "Path to the reference PNG"},
		&cli.StringFlag{Name: "markup", Required: true, Usage: "Path to the starting markup HTML"},
		&cli.StringFlag{Name: "renderer", Required: true, Usage: "External renderer binary (html-on-stdin, PNG-on-stdout)"},
		&cli.StringFlag{Name: "work-dir", Value: ".nodebridge-verify", Usage: "Directory to hold per-run iteration artifacts"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		refFile, err := os.Open(c.String("reference"))
		if err != nil {
			return fmt.Errorf("failed to open reference image: %w", err)
		}
		defer refFile.Close()
		reference, _, err := image.Decode(refFile)
		if err != nil {
			return fmt.Errorf("failed to decode reference image: %w", err)
		}

		markup, err := os.ReadFile(c.String("markup"))
		if err != nil {
			return fmt.Errorf("failed to read markup: %w", err)
		}

		vcfg := verify.Config{
			TargetScore:    cfg.Verify.TargetScore,
			MaxIterations:  cfg.Verify.MaxIterations,
			ViewportWidth:  cfg.Verify.ViewportWidth,
			ViewportHeight: cfg.Verify.ViewportHeight,
		}

		progress, stopProgress := verify.NewBarProgress(vcfg.MaxIterations)
		renderer := shellRenderer{cmd: c.String("renderer")}

		result := verify.Run(context.Background(), vcfg, renderer, reference, string(markup), c.String("work-dir"), progress)
		stopProgress()

		if result.Error != "" {
			display.Failed(os.Stdout, result.RunID, result.Iterations, result.Error)
			return fmt.Errorf("verification run %s errored: %s", result.RunID, result.Error)
		}
		if !result.Passed {
			last := result.EvolutionHistory[len(result.EvolutionHistory)-1]
			display.Failed(os.Stdout, result.RunID, result.Iterations, fmt.Sprintf("target score not reached (human_ssim=%.4f)", last.HumanSSIM))
			return nil
		}

		last := result.EvolutionHistory[len(result.EvolutionHistory)-1]
		display.Passed(os.Stdout, result.RunID, result.Iterations, last.HumanSSIM)
		return nil
	},
}
