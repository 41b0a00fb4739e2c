package identity

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleCaser  = cases.Title(language.English)
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// NormalizeDisplayName derives a human-readable label from a recording
// filename. Meet exports look like
// "DnD - 2025-01-10 18-41 CST - Recording.mp4"; those collapse to
// "DnD 2025-01-10". Anything else keeps its base name with separators
// cleaned up.
func NormalizeDisplayName(filename string) string {
	base := strings.TrimSpace(filename)
	if base == "" {
		return "Recording"
	}
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))

	parts := strings.Split(base, " - ")
	if len(parts) >= 2 {
		name := strings.TrimSpace(parts[0])
		if date := datePattern.FindString(parts[1]); name != "" && date != "" {
			return name + " " + date
		}
	}

	cleaned := strings.NewReplacer("_", " ", ".", " ").Replace(base)
	cleaned = strings.TrimSpace(spaceRuns.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return "Recording"
	}

	words := strings.Fields(cleaned)
	for i, word := range words {
		if word == strings.ToLower(word) {
			words[i] = titleCaser.String(word)
		}
	}
	return strings.Join(words, " ")
}
