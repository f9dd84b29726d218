package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListActiveTopics returns every non-archived, non-deleted global topic, the
// candidate set the clustering pass compares each incoming topic against.
func (q *Queries) ListActiveTopics(ctx context.Context) ([]GlobalTopic, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, canonical_title, canonical_description, source_count,
		       first_seen, last_seen, frequency_score, recency_score,
		       relevance_score, archived, deleted
		FROM global_topics
		WHERE archived = false AND deleted = false
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GlobalTopic
	for rows.Next() {
		var t GlobalTopic
		if err := rows.Scan(
			&t.ID, &t.CanonicalTitle, &t.CanonicalDescription, &t.SourceCount,
			&t.FirstSeen, &t.LastSeen, &t.FrequencyScore, &t.RecencyScore,
			&t.RelevanceScore, &t.Archived, &t.Deleted,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateGlobalTopic inserts a brand-new topic seeded from one meeting's raw
// topic.
func (q *Queries) CreateGlobalTopic(ctx context.Context, title, description string, seenAt time.Time) (GlobalTopic, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO global_topics (
			id, canonical_title, canonical_description, source_count,
			first_seen, last_seen, frequency_score, recency_score,
			relevance_score, archived, deleted
		)
		VALUES (gen_random_uuid(), $1, $2, 1, $3, $3, 0, 0, 0, false, false)
		RETURNING id, canonical_title, canonical_description, source_count,
		          first_seen, last_seen, frequency_score, recency_score,
		          relevance_score, archived, deleted
	`, title, description, seenAt)

	var t GlobalTopic
	err := row.Scan(
		&t.ID, &t.CanonicalTitle, &t.CanonicalDescription, &t.SourceCount,
		&t.FirstSeen, &t.LastSeen, &t.FrequencyScore, &t.RecencyScore,
		&t.RelevanceScore, &t.Archived, &t.Deleted,
	)
	return t, err
}

// MergeTopicParams carries the updated rollup fields written when an
// incoming topic merges into an existing global topic.
type MergeTopicParams struct {
	ID             uuid.UUID
	SourceCount    int
	LastSeen       time.Time
	FrequencyScore float64
	RecencyScore   float64
	RelevanceScore float64
}

// MergeTopic updates a global topic's rollup fields after absorbing a new
// source.
func (q *Queries) MergeTopic(ctx context.Context, arg MergeTopicParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE global_topics
		SET source_count = $2, last_seen = $3, frequency_score = $4,
		    recency_score = $5, relevance_score = $6
		WHERE id = $1
	`, arg.ID, arg.SourceCount, arg.LastSeen, arg.FrequencyScore, arg.RecencyScore, arg.RelevanceScore)
	return err
}

// HasTopicSource checks whether a (meeting, topic_index) pair has already
// been written into any global topic's source set — the idempotency guard
// for re-delivered or re-processed meetings.
func (q *Queries) HasTopicSource(ctx context.Context, meetingID uuid.UUID, topicIndex int) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM topic_sources
			WHERE meeting_id = $1 AND topic_index = $2
		)
	`, meetingID, topicIndex).Scan(&exists)
	return exists, err
}

// CreateTopicSource records which meeting/topic-index contributed to a
// global topic, alongside the similarity score that placed it there.
func (q *Queries) CreateTopicSource(ctx context.Context, globalTopicID, meetingID uuid.UUID, topicIndex int, similarity float64) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO topic_sources (id, global_topic_id, meeting_id, topic_index, similarity_score, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
	`, globalTopicID, meetingID, topicIndex, similarity)
	return err
}
