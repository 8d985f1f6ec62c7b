package simulate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/wheel/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging initializes the global logger on stdout, and also on logFile
// when one is given. The returned func closes the log file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	closer := func() error { return nil }
	var w io.Writer = os.Stdout

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ParseNames splits a comma-separated roster, dropping blanks.
func ParseNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Wheel Simulator
===============

Spins the weighted wheel many times in memory and reports how often each
entrant won. Nothing is read from or written to the weights file.

Usage:
  go run ./cmd/simulate [options]

Options:
  -spins int
        Number of spins to run (default 10000)
  -names string
        Comma-separated roster (default: the shipped ten names)
  -mode string
        Threshold mode: eligible or full_sum (default "eligible")
  -seed int
        Random seed; 0 picks a crypto-random seed (default 0)
  -log string
        Also write the log to this file
  -verbose
        Log every spin
  -help
        Show this help message

Examples:
  # Ten thousand spins over the default roster
  go run ./cmd/simulate

  # Draw against the sum of all weights, excluded winner included
  go run ./cmd/simulate -mode full_sum -seed 42

  # Small roster, every spin logged
  go run ./cmd/simulate -names A,B,C -spins 20 -verbose
`)
}
