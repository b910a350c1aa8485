package simjudge

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/duello/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	skillTierDivisor   = 8
)

// Constants for hidden skill tiers. The spread drives how decisive the
// simulated judge is about each pair.
const (
	averageSkillMin   = 3.0
	averageSkillRange = 4.0
	strongSkillMin    = 7.0
	strongSkillRange  = 2.0
	weakSkillMin      = 0.1
	weakSkillRange    = 2.9
	eliteSkillMin     = 9.0
	eliteSkillRange   = 1.0
	wideSkillMin      = 0.1
	wideSkillRange    = 9.9
)

// Outcome model constants. skillScale controls how strongly a skill
// gap tips the simulated judge; drawChance leaves room for ties.
const (
	skillScale = 2.0
	drawChance = 0.10
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateTrueSkill draws a hidden skill from a tiered distribution so
// the pool mixes clear winners, clear losers, and a crowded middle.
func generateTrueSkill() float64 {
	tier, _ := rand.Int(rand.Reader, big.NewInt(skillTierDivisor))
	switch tier.Int64() {
	case 0, 1, 2:
		// Crowded middle (3.0 - 7.0) - most common
		return averageSkillMin + getRandomFloat()*averageSkillRange
	case 3:
		// Strong items (7.0 - 9.0)
		return strongSkillMin + getRandomFloat()*strongSkillRange
	case 4:
		// Weak items (0.1 - 3.0)
		return weakSkillMin + getRandomFloat()*weakSkillRange
	case 5:
		// Elite items (9.0 - 10.0) - rare
		return eliteSkillMin + getRandomFloat()*eliteSkillRange
	default:
		// Random across full range (0.1 - 10.0)
		return wideSkillMin + getRandomFloat()*wideSkillRange
	}
}

// judgeOutcome decides A's score for one pair the way a noisy human
// judge would: a logistic curve over the hidden skill gap, with a
// fixed chance of calling the pair a draw.
func judgeOutcome(skillA, skillB float64) float64 {
	if getRandomFloat() < drawChance {
		return 0.5
	}
	pWin := 1.0 / (1.0 + math.Exp(-(skillA-skillB)/skillScale))
	if getRandomFloat() < pWin {
		return 1
	}
	return 0
}

// seedItems creates the item pool via POST /items and assigns each
// item its hidden skill.
func seedItems(ctx context.Context, config *Config, stats *Stats) ([]Item, error) {
	logger.Get().Info(ctx, "seeding items", logger.Int("numItems", config.NumItems))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/items"

	items := make([]Item, 0, config.NumItems)
	for i := 0; i < config.NumItems; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during seeding: %w", ctx.Err())
		default:
		}

		name := fmt.Sprintf("item-%03d", i)
		resp, err := client.Post(url, map[string]string{"name": name})
		if err != nil {
			return nil, fmt.Errorf("failed to create item %s: %w", name, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read item response: %w", err)
		}
		if resp.StatusCode != StatusCreated {
			return nil, fmt.Errorf("item creation failed with status %d: %s", resp.StatusCode, string(body))
		}

		var created Item
		if err := unmarshalJSON(body, &created); err != nil {
			return nil, fmt.Errorf("failed to parse item response: %w", err)
		}
		created.TrueSkill = generateTrueSkill()
		items = append(items, created)
	}

	stats.ItemsSeeded = len(items)
	logger.Get().Info(ctx, "seeded items successfully", logger.Int("count", len(items)))
	return items, nil
}

// runJudgments drives the judgment loop: each worker repeatedly asks
// the service for the next pair, judges it against the hidden skills,
// and submits the outcome.
func runJudgments(ctx context.Context, config *Config, items []Item, stats *Stats) ([]Judgment, error) {
	logger.Get().Info(ctx, "running judgments",
		logger.Int("numJudgments", config.NumJudgments),
		logger.Int("workers", config.Workers),
	)

	skills := make(map[string]float64, len(items))
	for _, item := range items {
		skills[item.ID] = item.TrueSkill
	}

	client := newHTTPClient(config.Timeout)
	matchURL := config.BaseURL + "/match"
	judgmentURL := config.BaseURL + "/judgments"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var mu sync.Mutex
	judgments := make([]Judgment, 0, config.NumJudgments)

	work := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				match, err := fetchMatch(client, matchURL)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}

				j := Judgment{
					JudgmentID: uuid.NewString(),
					ItemA:      match.ItemA,
					ItemB:      match.ItemB,
					Score:      judgeOutcome(skills[match.ItemA], skills[match.ItemB]),
					TS:         time.Now().UTC().Format(time.RFC3339),
				}

				atomic.AddInt64(&submitted, 1)
				switch submitJudgment(client, judgmentURL, j) {
				case "success":
					atomic.AddInt64(&successful, 1)
					mu.Lock()
					judgments = append(judgments, j)
					mu.Unlock()
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := 0; i < config.NumJudgments; i++ {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()

	wg.Wait()

	stats.JudgmentsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.JudgmentsSuccessful = int(atomic.LoadInt64(&successful))
	stats.JudgmentsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.JudgmentsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "judgment submission completed",
		logger.Int("successful", stats.JudgmentsSuccessful),
		logger.Int("duplicate", stats.JudgmentsDuplicate),
		logger.Int("failed", stats.JudgmentsFailed),
	)
	return judgments, nil
}

// fetchMatch asks the service for the next pair to judge.
func fetchMatch(client *HTTPClient, url string) (Match, error) {
	resp, err := client.Get(url)
	if err != nil {
		return Match{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Match{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Match{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var match Match
	if err := unmarshalJSON(body, &match); err != nil {
		return Match{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return match, nil
}

// submitJudgment submits a single judgment and classifies the result.
func submitJudgment(client *HTTPClient, url string, j Judgment) string {
	resp, err := client.Post(url, j)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success"
	case StatusOK:
		return "duplicate"
	default:
		return "failed"
	}
}
