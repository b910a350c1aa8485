// Package simjudge drives a running service with simulated judges:
// it seeds an item pool, judges served pairs against hidden skills,
// and verifies the learned standings.
package simjudge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/duello/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete judgment simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting duello judgment simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("items", config.NumItems),
		logger.Int("judgments", config.NumJudgments),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed the item pool
	items, err := seedItems(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("item seeding failed: %w", err)
	}

	// Step 3: Judge served pairs concurrently
	judgments, err := runJudgments(ctx, config, items, stats)
	if err != nil {
		return fmt.Errorf("judgment simulation failed: %w", err)
	}

	// Step 4: Wait for the queue to drain
	logger.Get().Info(ctx, "waiting for judgments to be processed")
	time.Sleep(ProcessingDrainDelay)

	// Step 5: Retrieve ranks concurrently
	ranks, err := retrieveRanks(ctx, config, items, stats)
	if err != nil {
		return fmt.Errorf("rank retrieval failed: %w", err)
	}

	// Step 6: Get standings
	standings, err := getStandings(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("standings retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(ctx, config, items, ranks, standings, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save judgments to file
	if err := saveJudgmentsToFile(ctx, config, judgments); err != nil {
		logger.Get().Warn(ctx, "failed to save judgments to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveJudgmentsToFile saves the submitted judgments to a JSON file.
func saveJudgmentsToFile(ctx context.Context, config *Config, judgments []Judgment) error {
	if len(judgments) == 0 {
		return fmt.Errorf("no judgments to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "judgments_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := marshalJSON(judgments)
	if err != nil {
		return fmt.Errorf("failed to marshal judgments: %w", err)
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "judgments saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, judgmentsPerSecond float64

	if stats.JudgmentsSubmitted > 0 {
		successRate = float64(stats.JudgmentsSuccessful) / float64(stats.JudgmentsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		judgmentsPerSecond = float64(stats.JudgmentsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("itemsSeeded", stats.ItemsSeeded),
		logger.Int("judgmentsSubmitted", stats.JudgmentsSubmitted),
		logger.Int("judgmentsSuccessful", stats.JudgmentsSuccessful),
		logger.Int("judgmentsDuplicate", stats.JudgmentsDuplicate),
		logger.Int("judgmentsFailed", stats.JudgmentsFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("standingsEntries", stats.StandingsEntries),
		logger.Float64("skillCorrelation", stats.SkillCorrelation),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("judgmentsPerSecond", judgmentsPerSecond))
}
