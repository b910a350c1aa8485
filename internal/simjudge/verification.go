package simjudge

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/duello/pkg/logger"
)

// Correlation warning threshold. With enough judgments the learned
// ratings should track the hidden skills closely.
const minExpectedCorrelation = 0.5

// verifyResults checks standings consistency and how well the learned
// ratings recovered the hidden skill ordering.
func verifyResults(ctx context.Context, config *Config, items []Item, ranks, standings []Entry, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	if len(ranks) == 0 {
		return fmt.Errorf("no ranks to verify")
	}

	if err := verifyStandingsConsistency(ranks, standings); err != nil {
		logger.Get().Warn(ctx, "standings consistency warning", logger.Error(err))
	} else {
		logger.Get().Info(ctx, "standings consistency verified")
	}

	corr := skillRatingCorrelation(items, ranks)
	stats.SkillCorrelation = corr
	if corr < minExpectedCorrelation {
		logger.Get().Warn(ctx, "ratings correlate weakly with hidden skills",
			logger.Float64("correlation", corr),
		)
	} else {
		logger.Get().Info(ctx, "ratings recovered the hidden skill ordering",
			logger.Float64("correlation", corr),
		)
	}

	displayTopItems(ctx, standings, config.Verbose)
	logger.Get().Info(ctx, "result verification completed")
	return nil
}

// verifyStandingsConsistency checks ordering and that the standings
// agree with the per-item rank lookups.
func verifyStandingsConsistency(ranks, standings []Entry) error {
	if len(standings) == 0 {
		return fmt.Errorf("empty standings")
	}

	// Standings must be sorted by rating descending.
	for i := 1; i < len(standings); i++ {
		if standings[i].Rating > standings[i-1].Rating {
			return fmt.Errorf("standings not sorted: entry %d outranks entry %d", i, i-1)
		}
	}

	// Each standings row must match the individually fetched rank.
	byID := make(map[string]Entry, len(ranks))
	for _, r := range ranks {
		byID[r.ItemID] = r
	}
	for _, s := range standings {
		r, ok := byID[s.ItemID]
		if !ok {
			continue
		}
		if r.Rank != s.Rank {
			return fmt.Errorf("rank mismatch for %s: standings say %d, /rank says %d",
				s.ItemID, s.Rank, r.Rank)
		}
	}

	return nil
}

// skillRatingCorrelation computes the Spearman rank correlation between
// hidden skills and learned ratings.
func skillRatingCorrelation(items []Item, ranks []Entry) float64 {
	ratings := make(map[string]float64, len(ranks))
	for _, r := range ranks {
		ratings[r.ItemID] = r.Rating
	}

	type pair struct {
		skill  float64
		rating float64
	}
	pairs := make([]pair, 0, len(items))
	for _, item := range items {
		rating, ok := ratings[item.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, pair{skill: item.TrueSkill, rating: rating})
	}
	n := len(pairs)
	if n < 2 {
		return 0
	}

	skillRank := rankOf(pairs, func(p pair) float64 { return p.skill })
	ratingRank := rankOf(pairs, func(p pair) float64 { return p.rating })

	var sumSq float64
	for i := 0; i < n; i++ {
		d := float64(skillRank[i] - ratingRank[i])
		sumSq += d * d
	}
	return 1 - 6*sumSq/float64(n*(n*n-1))
}

// rankOf assigns 1-based ranks to pairs ordered by key descending.
func rankOf[T any](xs []T, key func(T) float64) []int {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key(xs[order[a]]) > key(xs[order[b]])
	})
	ranks := make([]int, len(xs))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// displayTopItems shows the top of the standings.
func displayTopItems(ctx context.Context, standings []Entry, verbose bool) {
	topN := 10
	if len(standings) < topN {
		topN = len(standings)
	}

	for i := 0; i < topN; i++ {
		entry := standings[i]
		logger.Get().Info(ctx, "standings entry",
			logger.Int("rank", entry.Rank),
			logger.String("name", entry.Name),
			logger.Float64("rating", math.Round(entry.Rating*10)/10),
			logger.Float64("deviation", math.Round(entry.Deviation*10)/10),
			logger.Int("matches", entry.MatchCount),
		)
	}

	if verbose && len(standings) > 0 {
		var sum float64
		for _, e := range standings {
			sum += e.Rating
		}
		logger.Get().Info(ctx, "rating statistics",
			logger.Float64("average", sum/float64(len(standings))),
			logger.Float64("maximum", standings[0].Rating),
			logger.Float64("minimum", standings[len(standings)-1].Rating),
		)
	}
}
