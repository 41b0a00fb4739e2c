package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

// kindStyles pairs each status kind with its bracket label and ANSI color.
var kindStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const sectionColor = "\x1b[34m"

// renderStatusLine formats a single "label: [KIND] message" line with the
// label column padded so stacked lines read as a table.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := kindStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-20s %s", label+":", status)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

// renderSectionHeader returns a titled header line plus an underline rule.
func renderSectionHeader(title string, colorize bool) []string {
	header := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(header))
	if colorize {
		header = sectionColor + header + ansiReset
		rule = sectionColor + rule + ansiReset
	}
	return []string{header, rule}
}

// shouldColorize reports whether the writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
