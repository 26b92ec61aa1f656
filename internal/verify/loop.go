package verify

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/nodebridge-labs/nodebridge/internal/obslog"
)

// ProgressFunc is notified after every iteration; a CLI driver wires this to
// a github.com/schollz/progressbar/v3 bar (SPEC_FULL.md §4.4).
type ProgressFunc func(record IterationRecord)

// Run executes the Visual Verification Loop (spec.md §4.4) against a
// decoded reference raster and starting markup. workDir is the parent
// directory under which a run-id-named subdirectory is created to hold the
// markup and candidate rasters of each iteration (spec.md §4.4 "Persist
// markup_html to a working directory named by the run").
func Run(ctx context.Context, cfg Config, renderer Renderer, reference image.Image, markupHTML, workDir string, onProgress ProgressFunc) Result {
	cfg = cfg.withDefaults()
	runID := uuid.New().String()
	runDir := filepath.Join(workDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Result{RunID: runID, Passed: false, FinalHTML: markupHTML, Error: err.Error()}
	}

	current := markupHTML
	var history []IterationRecord

	for step := 1; step <= cfg.MaxIterations; step++ {
		htmlPath := filepath.Join(runDir, fileName(step, "html"))
		if err := os.WriteFile(htmlPath, []byte(current), 0o644); err != nil {
			return finishWithError(runID, step-1, current, history, err)
		}

		candidate, err := renderer.Render(ctx, current, cfg.ViewportWidth, cfg.ViewportHeight)
		if err != nil {
			obslog.Component("verify.loop", "run %s step %d: renderer failed: %v", runID, step, err)
			return Result{RunID: runID, Passed: false, Iterations: step - 1, FinalHTML: current, EvolutionHistory: history, Error: err.Error()}
		}

		pngPath := filepath.Join(runDir, fileName(step, "png"))
		if err := writePNG(pngPath, candidate); err != nil {
			obslog.Component("verify.loop", "run %s step %d: failed to persist candidate png: %v", runID, step, err)
		}

		comparison := Compare(reference, candidate)
		human := HumanSSIM(comparison.SSIM, comparison.DeltaE)

		hints := []Hint(nil)
		if human < cfg.TargetScore {
			hints = GenerateHints(comparison)
		}

		record := IterationRecord{
			Step: step, SSIM: comparison.SSIM, DeltaE: comparison.DeltaE, HumanSSIM: human,
			HTMLPath: htmlPath, PNGPath: pngPath, CorrectionsThisStep: hints,
		}
		history = append(history, record)
		if onProgress != nil {
			onProgress(record)
		}

		if human >= cfg.TargetScore {
			return Result{RunID: runID, Passed: true, Iterations: step, FinalHTML: current, EvolutionHistory: history}
		}
		if len(hints) == 0 {
			// nothing actionable left to try; stop rather than loop to no effect
			return Result{RunID: runID, Passed: false, Iterations: step, FinalHTML: current, EvolutionHistory: history}
		}
		current = ApplyHints(current, hints)
	}

	return Result{RunID: runID, Passed: false, Iterations: cfg.MaxIterations, FinalHTML: current, EvolutionHistory: history}
}

func finishWithError(runID string, iterations int, html string, history []IterationRecord, err error) Result {
	return Result{RunID: runID, Passed: false, Iterations: iterations, FinalHTML: html, EvolutionHistory: history, Error: err.Error()}
}

func fileName(step int, ext string) string {
	return "step-" + strconv.Itoa(step) + "." + ext
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
