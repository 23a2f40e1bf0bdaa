package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// setupLog points the logger at a file in the user cache dir when BRIEF_LOG
// or --debug is set. The TUI owns the terminal, so otherwise logs are
// discarded.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	if os.Getenv("BRIEF_LOG") == "" && !debugRequested() {
		return func() error { return nil }, nil
	}

	// Log to file, if set
	logFile := filepath.Join(defaultLogDir(), "brief.log")
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

// debugRequested checks for --debug before cobra has parsed the flags.
func debugRequested() bool {
	if viper.GetBool("debug") {
		return true
	}
	for _, arg := range os.Args[1:] {
		if arg == "--debug" || arg == "--debug=true" {
			return true
		}
	}
	return false
}

func defaultLogDir() string {
	dir, err := gap.NewScope(gap.User, "brief").CacheDir()
	if err != nil || dir == "" {
		return filepath.Join(os.TempDir(), "brief")
	}
	return dir
}
