package services

import (
	"io"
	"os"
	"strings"

	"vidgen/config"

	"github.com/charmbracelet/log"
)

// ConfigureLogging applies the log section to the default logger. Progress and
// diagnostics go to w (stderr in the binaries) so stdout stays for reports.
func ConfigureLogging(cfg config.LogConfig, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	log.SetOutput(w)
	log.SetReportTimestamp(cfg.Timestamps)

	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		log.Warn("unknown log level, using info", "level", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func ComponentLogger(component string) *log.Logger {
	return log.With("component", component)
}

// RunLogger tags every line of one generation with its request id.
func RunLogger(base *log.Logger, reqID, action string) *log.Logger {
	return base.With(
		"reqId", reqID,
		"action", action,
	)
}

// truncate keeps long user input (prompts, URLs) bounded in log lines.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
