package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

func (k statusKind) label() string {
	return [...]string{"INFO", "OK", "WARN", "ERROR"}[k]
}

func (k statusKind) colors() text.Colors {
	return [...]text.Colors{
		{text.FgBlue},
		{text.FgGreen},
		{text.FgYellow},
		{text.FgRed, text.Bold},
	}[k]
}

// renderStatusLine formats "  label:   [KIND] message" with the label padded
// so kinds line up within a section.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	line := fmt.Sprintf("  %-22s [%s]", label+":", kind.label())
	if message != "" {
		line += " " + message
	}
	if !colorize {
		return line
	}
	return kind.colors().Sprint(line)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", text.StringWidthWithoutEscSequences(heading))
	if colorize {
		style := text.Colors{text.FgBlue, text.Bold}
		heading = style.Sprint(heading)
	}
	return []string{heading, rule}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatBytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
