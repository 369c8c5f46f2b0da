package colorgrade

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"highlighter/internal/services"
)

const sizeKeyword = "LUT_3D_SIZE"

// Table is the structural summary of a .cube file.
type Table struct {
	Size int
	Rows int
}

// Expected is the number of data rows a LUT of this size needs.
func (t Table) Expected() int {
	return t.Size * t.Size * t.Size
}

// Valid reports whether the declared size matches the row count.
func (t Table) Valid() bool {
	return t.Size > 0 && t.Rows == t.Expected()
}

// Parse reads a .cube stream. Blank lines and # comments are skipped; data
// rows are lines beginning with a digit.
func Parse(r io.Reader) (Table, error) {
	var t Table
	sawSize := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, sizeKeyword) {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return t, services.Wrap(services.ErrValidation, "colorgrade", "parse", "LUT_3D_SIZE without value", nil)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				return t, services.Wrap(services.ErrValidation, "colorgrade", "parse", fmt.Sprintf("invalid LUT_3D_SIZE %q", fields[1]), nil)
			}
			t.Size = n
			sawSize = true
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			t.Rows++
		}
	}
	if err := scanner.Err(); err != nil {
		return t, fmt.Errorf("read cube: %w", err)
	}
	if !sawSize {
		return t, services.Wrap(services.ErrValidation, "colorgrade", "parse", "missing LUT_3D_SIZE", nil)
	}
	return t, nil
}

// Validate parses the file at path and rejects it unless the row count
// matches the declared size.
func Validate(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return t, err
	}
	if !t.Valid() {
		return t, services.Wrap(services.ErrValidation, "colorgrade", "validate",
			fmt.Sprintf("%d data rows, LUT_3D_SIZE %d needs %d", t.Rows, t.Size, t.Expected()), nil)
	}
	return t, nil
}

// Inspection is the result of Inspect.
type Inspection struct {
	Path     string
	Bytes    int64
	TooSmall bool
	Table    Table
}

// Inspect resolves path to an absolute location, checks that it exists and
// validates its structure. A file smaller than minBytes is flagged but not
// rejected.
func Inspect(path string, minBytes int64) (Inspection, error) {
	var in Inspection
	if strings.TrimSpace(path) == "" {
		return in, services.Wrap(services.ErrConfiguration, "colorgrade", "inspect", "no LUT path configured", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return in, fmt.Errorf("resolve LUT path: %w", err)
	}
	in.Path = abs
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return in, services.Wrap(services.ErrNotFound, "colorgrade", "inspect", abs, err)
		}
		return in, fmt.Errorf("stat LUT: %w", err)
	}
	if info.IsDir() {
		return in, services.Wrap(services.ErrValidation, "colorgrade", "inspect", abs+" is a directory", nil)
	}
	in.Bytes = info.Size()
	in.TooSmall = minBytes > 0 && in.Bytes < minBytes
	in.Table, err = Validate(abs)
	if err != nil {
		return in, err
	}
	return in, nil
}
