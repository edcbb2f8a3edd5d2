// Package logging builds the leveled console logger shared by every binary.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// ParseLevel accepts debug, info, warn or error in any case. An empty string
// means info.
func ParseLevel(s string) (log.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return log.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// New returns a text logger writing to w at the given level.
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "todo",
	}), nil
}

// Setup installs a logger built by New as the package-level default, so
// library code can keep calling log.Info and friends.
func Setup(level string, w io.Writer) error {
	logger, err := New(level, w)
	if err != nil {
		return err
	}
	log.SetDefault(logger)
	return nil
}
