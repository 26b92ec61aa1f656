package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"

	_ "image/png"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
)

// shellRenderer implements verify.Renderer by shelling out to an external
// headless-renderer binary (spec.md §1 excludes "the external renderer
// invocation" itself from this repo's scope; this is the caller-side
// adapter that plugs a real one into the Visual Verification Loop). The
// binary is invoked as `cmd --width W --height H`, receives html on stdin,
// and must write a PNG to stdout.
type shellRenderer struct {
	cmd string
}

func (r shellRenderer) Render(ctx context.Context, html string, width, height int) (image.Image, error) {
	cmd := exec.CommandContext(ctx, r.cmd, "--width", strconv.Itoa(width), "--height", strconv.Itoa(height))
	cmd.Stdin = bytes.NewBufferString(html)
	var out bytes.Buffer
	cmd.Stdout = &out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errs.New(errs.KindUnknown, "shellRenderer.Render", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	img, _, err := image.Decode(&out)
	if err != nil {
		return nil, errs.New(errs.KindParse, "shellRenderer.Render", err)
	}
	return img, nil
}
