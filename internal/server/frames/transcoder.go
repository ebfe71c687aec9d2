package frames

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/frameextractor/frameextractor/internal/common"
)

// Transcoder extracts still frames from a video file into sequentially
// numbered images matching outputPattern.
type Transcoder interface {
	ExtractFrames(ctx context.Context, videoPath, outputPattern string, interval int) error
}

// FFmpeg invokes the external ffmpeg binary. One frame is emitted for
// every sample point where elapsed-time mod interval crosses zero
// (variable frame rate, one image per qualifying timestamp).
type FFmpeg struct {
	path    string
	timeout time.Duration
}

func NewFFmpeg(path string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{path: path, timeout: timeout}
}

func (f *FFmpeg) ExtractFrames(ctx context.Context, videoPath, outputPattern string, interval int) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// The comma inside mod() is escaped so the filter parser does not
	// treat it as a filter separator.
	selectExpr := fmt.Sprintf(`select=not(mod(t\,%d))`, interval)

	cmd := exec.CommandContext(ctx, f.path,
		"-fflags", "+genpts",
		"-i", videoPath,
		"-vf", selectExpr,
		"-vsync", "vfr",
		"-f", "image2",
		outputPattern,
	)

	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Timeout is indistinguishable from any other transcoder
		// failure for the caller; it is not retried either way.
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return fmt.Errorf("%w: %s", common.ErrTranscodeFailed, diag)
	}

	return nil
}
