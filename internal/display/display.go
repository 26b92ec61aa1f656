// Package display renders nodebridge's CLI output, colored when stdout is
// a terminal (SPEC_FULL.md §4.6 "Colored, human-oriented output via
// github.com/fatih/color + github.com/mattn/go-isatty (TTY detection
// before coloring), grounded on kraklabs/cie's CLI output stack"). Neither
// pack repo actually exercises these two go.mod entries in a source file,
// so the pairing below follows the libraries' own standard idiom:
// isatty gates color.NoColor before any color.* call happens.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func init() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}

var (
	ok    = color.New(color.FgGreen, color.Bold)
	warn  = color.New(color.FgYellow, color.Bold)
	fail  = color.New(color.FgRed, color.Bold)
	faint = color.New(color.Faint)
)

// Passed reports a Visual Verification Loop run that reached target_score.
func Passed(w io.Writer, runID string, iterations int, humanSSIM float64) {
	ok.Fprint(w, "PASS")
	fmt.Fprintf(w, " run=%s iterations=%d human_ssim=%.4f\n", runID, iterations, humanSSIM)
}

// Failed reports a run that exhausted max_iterations or hit a renderer
// error.
func Failed(w io.Writer, runID string, iterations int, reason string) {
	fail.Fprint(w, "FAIL")
	fmt.Fprintf(w, " run=%s iterations=%d: %s\n", runID, iterations, reason)
}

// Warn reports a non-fatal condition (e.g. a scheduled re-plan skipped a
// pattern whose tree could no longer be fetched).
func Warn(w io.Writer, format string, args ...interface{}) {
	warn.Fprint(w, "WARN ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Dim writes secondary detail (e.g. a per-iteration trace line) in a
// de-emphasized style.
func Dim(w io.Writer, format string, args ...interface{}) {
	faint.Fprintf(w, format+"\n", args...)
}
