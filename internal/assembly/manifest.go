package assembly

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteManifest writes an ffmpeg concat demuxer list of absolute paths.
func WriteManifest(path string, files []string) error {
	var b strings.Builder
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", file, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", EscapeManifestPath(abs))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// EscapeManifestPath quotes a path for a single-quoted concat entry.
func EscapeManifestPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// escapeFilterValue escapes a path for use as a filtergraph option value.
func escapeFilterValue(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`, `[`, `\[`, `]`, `\]`, `;`, `\;`)
	return r.Replace(path)
}
