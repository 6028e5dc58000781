package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/studybuddy/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Study Buddy Probe
=================

Posts a fixed corpus of sample inputs to a running server concurrently and
checks every answer: status, emotion shape, study level and the empty-input
warning.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -rounds int
        Times the corpus is submitted (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -history
        Also check GET /history (journal must be enabled)
  -log string
        Also write the log to this file
  -verbose
        Log every response
  -help
        Show this help message

Examples:
  go run ./cmd/probe -rounds 50 -workers 16 -url http://localhost:8080
  go run ./cmd/probe -history -verbose
`)
}
