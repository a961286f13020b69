package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type severity int

const (
	sevInfo severity = iota
	sevOK
	sevWarn
	sevError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func (s severity) String() string {
	switch s {
	case sevOK:
		return "OK"
	case sevWarn:
		return "WARN"
	case sevError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (s severity) color() string {
	switch s {
	case sevOK:
		return ansiGreen
	case sevWarn:
		return ansiYellow
	case sevError:
		return ansiRed
	default:
		return ansiBlue
	}
}

// statusLine renders an indented "Label [BADGE] detail" row. Only the badge
// is colored so details stay legible on themed terminals.
func statusLine(label string, sev severity, detail string, color bool) string {
	badge := "[" + sev.String() + "]"
	if color {
		badge = sev.color() + badge + ansiReset
	}
	line := fmt.Sprintf("  %-10s %s", label, badge)
	if detail != "" {
		line += " " + detail
	}
	return line
}

func sectionHeader(title string, color bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if color {
		return ansiBlue + line + ansiReset
	}
	return line
}

func colorEnabled(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func modeSeverity(mode string) severity {
	switch mode {
	case "synced":
		return sevOK
	case "pending", "offline":
		return sevWarn
	default:
		return sevInfo
	}
}
