package deps

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"highlighter/internal/transcode"
)

// FFmpegVersion returns the first line of `ffmpeg -version`.
func FFmpegVersion(ctx context.Context, runner transcode.Runner, binary string) (string, error) {
	result, err := runner.Run(ctx, binary, []string{"-hide_banner", "-version"})
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\n")
	return strings.TrimSpace(line), nil
}

// Encoders lists the video encoders compiled into ffmpeg.
func Encoders(ctx context.Context, runner transcode.Runner, binary string) (map[string]bool, error) {
	result, err := runner.Run(ctx, binary, []string{"-hide_banner", "-encoders"})
	if err != nil {
		return nil, fmt.Errorf("%s -encoders: %w", binary, err)
	}
	return parseEncoders(result.Stdout), nil
}

// parseEncoders reads the encoder table. Rows look like
// " V....D libx264              libx264 H.264 / AVC" after a "------" rule.
func parseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			inTable = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "V") {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}
