package topics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
)

// Threshold is the minimum blended similarity for an incoming topic to
// merge into an existing Global Topic rather than seed a new one.
const Threshold = 0.85

// RawTopic is one (meeting_id, topic_index) candidate pulled from a
// meeting's raw_topics payload.
type RawTopic struct {
	MeetingID   uuid.UUID
	TopicIndex  int
	Title       string
	Description string
	OccurredAt  time.Time
}

func (t RawTopic) text() string {
	return t.Title + " " + t.Description
}

// Outcome reports how ClusterOne handled one raw topic.
type Outcome string

const (
	OutcomeMerged     Outcome = "merged"
	OutcomeCreated    Outcome = "created"
	OutcomeDuplicate  Outcome = "duplicate"
)

// ClusterOne runs the argmax-G* clustering decision for one raw topic
// against a tenant's active Global Topics (spec §4.5): pick the existing
// topic with the highest sim(); merge if sim ≥ Threshold, else create a
// new Global Topic. Idempotent per (meeting_id, topic_index).
func ClusterOne(ctx context.Context, q *db.Queries, rt RawTopic) (Outcome, error) {
	already, err := q.HasTopicSource(ctx, rt.MeetingID, rt.TopicIndex)
	if err != nil {
		return "", fmt.Errorf("checking topic source idempotency: %w", err)
	}
	if already {
		return OutcomeDuplicate, nil
	}

	active, err := q.ListActiveTopics(ctx)
	if err != nil {
		return "", fmt.Errorf("listing active topics: %w", err)
	}

	best, bestScore := -1, 0.0
	for i, g := range active {
		score := sim(rt.text(), g.CanonicalTitle+" "+g.CanonicalDescription)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best >= 0 && bestScore >= Threshold {
		g := active[best]
		if err := q.CreateTopicSource(ctx, g.ID, rt.MeetingID, rt.TopicIndex, bestScore); err != nil {
			return "", fmt.Errorf("recording topic source: %w", err)
		}
		if err := q.MergeTopic(ctx, db.MergeTopicParams{
			ID:             g.ID,
			SourceCount:    g.SourceCount + 1,
			LastSeen:       latestOf(g.LastSeen, rt.OccurredAt),
			FrequencyScore: g.FrequencyScore,
			RecencyScore:   g.RecencyScore,
			RelevanceScore: g.RelevanceScore,
		}); err != nil {
			return "", fmt.Errorf("merging topic: %w", err)
		}
		telemetry.TopicsMergedTotal.Inc()
		return OutcomeMerged, nil
	}

	g, err := q.CreateGlobalTopic(ctx, rt.Title, rt.Description, rt.OccurredAt)
	if err != nil {
		return "", fmt.Errorf("creating global topic: %w", err)
	}
	if err := q.CreateTopicSource(ctx, g.ID, rt.MeetingID, rt.TopicIndex, 1.0); err != nil {
		return "", fmt.Errorf("recording topic source: %w", err)
	}
	telemetry.TopicsCreatedTotal.Inc()
	return OutcomeCreated, nil
}

func latestOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
