package verify

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
)

// NewBarProgress returns a ProgressFunc driving a single progressbar/v3 bar
// across a run's iterations, grounded on vjache-cie's
// "create once, Set64 per callback, Finish at the end" pattern
// (cmd/cie/index.go).
func NewBarProgress(maxIterations int) (ProgressFunc, func()) {
	bar := progressbar.NewOptions(maxIterations,
		progressbar.OptionSetDescription("verifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(record IterationRecord) {
			_ = bar.Set(record.Step)
			bar.Describe(fmt.Sprintf("verifying (ssim=%.3f human=%.3f)", record.SSIM, record.HumanSSIM))
		}, func() {
			_ = bar.Finish()
		}
}
