package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/duello/internal/simjudge"
)

// Default configuration constants.
const (
	defaultNumItems     = 50
	defaultNumJudgments = 2000
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultSimTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems     = flag.Int("items", defaultNumItems, "Number of items to seed into the pool")
		numJudgments = flag.Int("judgments", defaultNumJudgments, "Number of judgments to simulate")
		topN         = flag.Int("top", defaultTopN, "Number of top entries to fetch from standings")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for submitted judgments (default: judgments_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for simulation output (default: sim_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simjudge.ShowHelp()
		return
	}

	// Setup logging
	if err := simjudge.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultSimTimeout)
	defer cancel()

	// Create simulation configuration
	config := &simjudge.Config{
		BaseURL:      *baseURL,
		NumItems:     *numItems,
		NumJudgments: *numJudgments,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the simulation
	if err := simjudge.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
