package topics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/meridiancrm/core/internal/db"
)

const recencyHorizon = 90 * 24 * time.Hour

// round4 rounds to 4 decimal places, matching spec §4.5's stored precision.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// RecomputeRelevance recalculates frequency/recency/relevance for every
// active Global Topic of the current tenant, after a clustering batch
// (spec §4.5 "Relevance scoring").
func RecomputeRelevance(ctx context.Context, q *db.Queries, now time.Time) error {
	active, err := q.ListActiveTopics(ctx)
	if err != nil {
		return fmt.Errorf("listing active topics: %w", err)
	}
	if len(active) == 0 {
		return nil
	}

	maxSourceCount := 0
	for _, g := range active {
		if g.SourceCount > maxSourceCount {
			maxSourceCount = g.SourceCount
		}
	}

	for _, g := range active {
		frequency := 0.0
		if maxSourceCount > 0 {
			frequency = float64(g.SourceCount) / float64(maxSourceCount)
		}

		days := now.Sub(g.LastSeen).Hours() / 24
		recency := math.Max(0, 1-days/(recencyHorizon.Hours()/24))

		relevance := 0.4*frequency + 0.6*recency

		if err := q.MergeTopic(ctx, db.MergeTopicParams{
			ID:             g.ID,
			SourceCount:    g.SourceCount,
			LastSeen:       g.LastSeen,
			FrequencyScore: round4(frequency),
			RecencyScore:   round4(recency),
			RelevanceScore: round4(relevance),
		}); err != nil {
			return fmt.Errorf("updating relevance for topic %s: %w", g.ID, err)
		}
	}
	return nil
}
