package stream

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that no goroutine, including the errgroup-bounded
// recursive-fetch goroutines spawned by GetNodeStream, outlives the
// package's tests (SPEC_FULL.md §4.6 test tooling: go.uber.org/goleak).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
