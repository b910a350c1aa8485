package simjudge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/duello/pkg/logger"
)

// retrieveRanks retrieves the standings entry for every seeded item
// concurrently.
func retrieveRanks(ctx context.Context, config *Config, items []Item, stats *Stats) ([]Entry, error) {
	logger.Get().Info(ctx, "retrieving ranks",
		logger.Int("items", len(items)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)

	ranks := make([]Entry, len(items))
	var (
		retrieved int64
		failed    int64
	)

	work := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				entry, err := retrieveSingleRank(client, config.BaseURL, items[index].ID)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "failed to get rank",
							logger.String("itemID", items[index].ID),
							logger.Error(err),
						)
					}
					continue
				}
				ranks[index] = entry
				atomic.AddInt64(&retrieved, 1)
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range items {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validRanks := make([]Entry, 0, len(ranks))
	for _, entry := range ranks {
		if entry.ItemID != "" {
			validRanks = append(validRanks, entry)
		}
	}

	stats.RanksRetrieved = len(validRanks)
	logger.Get().Info(ctx, "rank retrieval completed",
		logger.Int("retrieved", len(validRanks)),
		logger.Int("failed", int(atomic.LoadInt64(&failed))),
	)
	return validRanks, nil
}

// retrieveSingleRank retrieves the standings entry for one item.
func retrieveSingleRank(client *HTTPClient, baseURL, itemID string) (Entry, error) {
	url := fmt.Sprintf("%s/rank/%s", baseURL, itemID)

	resp, err := client.Get(url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := unmarshalJSON(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return entry, nil
}

// getStandings retrieves the top N standings entries.
func getStandings(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	logger.Get().Info(ctx, "getting standings", logger.Int("topN", config.TopN))

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/standings?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var standings []Entry
	if err := unmarshalJSON(body, &standings); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.StandingsEntries = len(standings)
	logger.Get().Info(ctx, "retrieved standings entries", logger.Int("count", len(standings)))
	return standings, nil
}
