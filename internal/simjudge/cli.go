package simjudge

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/duello/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the judgment simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Duello Judgment Simulator
=========================

A concurrent tool for exercising a running duello service with
simulated judges and verifying the learned standings.

Usage:
  go run cmd/simjudge/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -items int
        Number of items to seed into the pool (default 50)
  -judgments int
        Number of judgments to simulate (default 2000)
  -top int
        Number of top entries to fetch from standings (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for submitted judgments (default: judgments_TIMESTAMP.json)
  -log string
        Log file for simulation output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/simjudge/main.go

  # Simulate with custom parameters
  go run cmd/simjudge/main.go -items 200 -judgments 20000 -workers 16

  # Simulate against a non-default address
  go run cmd/simjudge/main.go -url http://localhost:8080 -verbose
`)
}
