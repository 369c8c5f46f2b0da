package ingest

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title derives a display title from the input directory name.
func Title(inputDir string) string {
	base := filepath.Base(filepath.Clean(inputDir))
	if base == "." || base == string(filepath.Separator) {
		return "Highlights"
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" || strings.EqualFold(title, "input") {
		return "Highlights"
	}
	return cases.Title(language.Und).String(title) + " Highlights"
}
