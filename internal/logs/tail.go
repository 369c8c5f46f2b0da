package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

const followPoll = 250 * time.Millisecond

// TailOptions controls a Tail call. A negative Offset reads the last Limit
// lines; otherwise reading starts at Offset. Follow waits up to Wait for new
// lines when none are available yet.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log at path. A missing file yields no lines.
// Only newline-terminated lines are consumed, so a line still being written
// is returned by a later call.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var res TailResult
	if opts.Offset < 0 {
		res, err = scanLines(path, 0, opts.Filter, max(opts.Limit, 0))
	} else {
		start := opts.Offset
		if start > info.Size() {
			// Truncated or rotated; pick up from the current end.
			start = info.Size()
		}
		res, err = scanLines(path, start, opts.Filter, -1)
	}
	if err != nil || len(res.Lines) > 0 || !opts.Follow || opts.Wait <= 0 {
		return res, err
	}
	return follow(ctx, path, res.Offset, opts)
}

// scanLines reads complete lines starting at offset. keep < 0 returns every
// matching line, keep == 0 returns none, and keep > 0 returns the last keep
// matches.
func scanLines(path string, offset int64, filter Filter, keep int) (TailResult, error) {
	res := TailResult{Offset: offset}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TailResult{}, nil
		}
		return res, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return res, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return res, fmt.Errorf("read log file: %w", err)
		}
		res.Offset += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if keep == 0 || !filter.Match(line) {
			continue
		}
		res.Lines = append(res.Lines, line)
		if keep > 0 && len(res.Lines) > keep {
			res.Lines = append(res.Lines[:0], res.Lines[1:]...)
		}
	}
}

func follow(ctx context.Context, path string, offset int64, opts TailOptions) (TailResult, error) {
	deadline := time.NewTimer(opts.Wait)
	defer deadline.Stop()
	ticker := time.NewTicker(followPoll)
	defer ticker.Stop()

	res := TailResult{Offset: offset}
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-deadline.C:
			return res, nil
		case <-ticker.C:
		}
		next, err := scanLines(path, res.Offset, opts.Filter, -1)
		if err != nil {
			return res, err
		}
		res = next
		if len(res.Lines) > 0 {
			return res, nil
		}
	}
}
