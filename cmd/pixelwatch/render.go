package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"pixelwatch/internal/check"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const statusLabelWidth = 20

// renderOutcome prints one outcome as a single key=value line.
func renderOutcome(o check.Outcome, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outcome{task=%d kind=%s endpoint=%q attempts=%d duration=%s screenshot_bytes=%d",
		o.Index, o.Kind, o.Endpoint, o.Attempts, o.Duration.Round(time.Millisecond), o.ScreenshotSize)
	if o.Compared {
		fmt.Fprintf(&b, " baseline_match=%t", o.Match)
	}
	if o.Err != nil {
		fmt.Fprintf(&b, " error=%q", o.Err.Error())
	}
	b.WriteString("}")
	line := b.String()
	if !colorize {
		return line
	}
	if o.Kind.Failed() {
		return ansiRed + line + ansiReset
	}
	return ansiGreen + line + ansiReset
}

func renderStatusLine(label string, passed, advisory bool, message string, colorize bool) string {
	status, color := "OK", ansiGreen
	switch {
	case passed:
	case advisory:
		status, color = "WARN", ansiYellow
	default:
		status, color = "ERROR", ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, label+":", status, message)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
