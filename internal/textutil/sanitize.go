package textutil

import "strings"

// SanitizeFileName rewrites a source-provided name so it is safe to use as a
// file or directory name. Path separators and drive-style punctuation become
// dashes, shell-hostile characters are dropped, and surrounding whitespace is
// trimmed.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	return strings.TrimSpace(cleaned)
}
