package signals

import (
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"highlighter/internal/transcode"
)

// SubjectCounter counts people in a frame.
type SubjectCounter interface {
	Count(ctx context.Context, frame image.Image) (int, error)
}

// CommandCounter delegates detection to an external program. The frame is
// written as a PNG and its path appended to Command; the program prints the
// person count on stdout.
type CommandCounter struct {
	Command string
	Runner  transcode.Runner
	TempDir string
}

// Count implements SubjectCounter.
func (c CommandCounter) Count(ctx context.Context, frame image.Image) (int, error) {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		return 0, nil
	}
	tmp, err := os.CreateTemp(c.TempDir, "frame-*.png")
	if err != nil {
		return 0, fmt.Errorf("subject frame: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	if err := imaging.Save(frame, path); err != nil {
		return 0, fmt.Errorf("subject frame encode: %w", err)
	}
	runner := c.Runner
	if runner == nil {
		runner = transcode.ExecRunner{}
	}
	args := append(fields[1:len(fields):len(fields)], path)
	result, err := runner.Run(ctx, fields[0], args)
	if err != nil {
		return 0, fmt.Errorf("subject command: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil || count < 0 {
		return 0, fmt.Errorf("subject command: unexpected output %q", strings.TrimSpace(result.Stdout))
	}
	return count, nil
}
