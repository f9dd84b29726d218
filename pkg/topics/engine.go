package topics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/pkg/workqueue"
)

// BatchSize is the default number of work items or meetings processed per
// run, per spec §4.5.
const BatchSize = 50

// BatchReport summarizes one aggregation run for the handler response.
type BatchReport struct {
	Mode      string `json:"mode"`
	Processed int    `json:"processed"`
	Merged    int    `json:"merged"`
	Created   int    `json:"created"`
	Duplicate int    `json:"duplicate"`
	Failed    int    `json:"failed"`
}

// Engine runs C5's three aggregation modes against one tenant's schema.
type Engine struct {
	batchSize int
	logger    *slog.Logger
}

// NewEngine builds an Engine with the given batch size (0 selects the
// spec default of 50).
func NewEngine(batchSize int, logger *slog.Logger) *Engine {
	if batchSize <= 0 {
		batchSize = BatchSize
	}
	return &Engine{batchSize: batchSize, logger: logger}
}

func (e *Engine) clusterMeeting(ctx context.Context, q *db.Queries, m db.Meeting, report *BatchReport) error {
	raws, err := ExtractRawTopics(m)
	if err != nil {
		return err
	}
	for _, rt := range raws {
		outcome, err := ClusterOne(ctx, q, rt)
		if err != nil {
			report.Failed++
			return fmt.Errorf("clustering meeting %s topic %d: %w", m.ID, rt.TopicIndex, err)
		}
		switch outcome {
		case OutcomeMerged:
			report.Merged++
		case OutcomeCreated:
			report.Created++
		case OutcomeDuplicate:
			report.Duplicate++
		}
		report.Processed++
	}
	return nil
}

// RunSingle clusters one meeting's raw topics (bypasses the work queue).
func (e *Engine) RunSingle(ctx context.Context, q *db.Queries, meetingID uuid.UUID) (BatchReport, error) {
	report := BatchReport{Mode: "single"}
	m, err := q.GetMeeting(ctx, meetingID)
	if err != nil {
		return report, fmt.Errorf("fetching meeting %s: %w", meetingID, err)
	}
	if err := e.clusterMeeting(ctx, q, m, &report); err != nil {
		return report, err
	}
	if err := RecomputeRelevance(ctx, q, time.Now()); err != nil {
		return report, fmt.Errorf("recomputing relevance: %w", err)
	}
	return report, nil
}

// RunFull re-scans every meeting for the tenant (bypasses the work queue).
func (e *Engine) RunFull(ctx context.Context, q *db.Queries) (BatchReport, error) {
	report := BatchReport{Mode: "full"}
	meetings, err := q.ListMeetingsSince(ctx, time.Time{})
	if err != nil {
		return report, fmt.Errorf("listing meetings: %w", err)
	}

	for _, m := range meetings {
		if err := e.clusterMeeting(ctx, q, m, &report); err != nil {
			e.logger.Error("full aggregation failed for meeting", "meeting_id", m.ID, "error", err)
			continue
		}
	}
	if err := RecomputeRelevance(ctx, q, time.Now()); err != nil {
		return report, fmt.Errorf("recomputing relevance: %w", err)
	}
	return report, nil
}

// RunIncremental drains up to batchSize pending KindTopicsIncremental work
// items, clustering the meeting each references. Per spec §4.5, repeat
// delivery of an already-sourced (meeting_id, topic_index) completes
// without side effects rather than failing.
func (e *Engine) RunIncremental(ctx context.Context, q *db.Queries) (BatchReport, error) {
	report := BatchReport{Mode: "incremental"}
	wq := workqueue.New(q)

	items, err := wq.Claim(ctx, workqueue.KindTopicsIncremental, e.batchSize)
	if err != nil {
		return report, fmt.Errorf("claiming work items: %w", err)
	}

	for _, item := range items {
		meetingID, err := parseMeetingSubjectRef(item.SubjectRef)
		if err != nil {
			report.Failed++
			if ferr := wq.Fail(ctx, item.ID, err.Error()); ferr != nil {
				e.logger.Error("marking work item failed", "item_id", item.ID, "error", ferr)
			}
			continue
		}

		m, err := q.GetMeeting(ctx, meetingID)
		if err != nil {
			report.Failed++
			if ferr := wq.Fail(ctx, item.ID, err.Error()); ferr != nil {
				e.logger.Error("marking work item failed", "item_id", item.ID, "error", ferr)
			}
			continue
		}

		if err := e.clusterMeeting(ctx, q, m, &report); err != nil {
			report.Failed++
			if ferr := wq.Fail(ctx, item.ID, err.Error()); ferr != nil {
				e.logger.Error("marking work item failed", "item_id", item.ID, "error", ferr)
			}
			continue
		}

		if err := wq.Complete(ctx, item.ID); err != nil {
			e.logger.Error("completing work item", "item_id", item.ID, "error", err)
		}
	}

	if report.Processed > 0 {
		if err := RecomputeRelevance(ctx, q, time.Now()); err != nil {
			return report, fmt.Errorf("recomputing relevance: %w", err)
		}
	}
	return report, nil
}

func parseMeetingSubjectRef(ref string) (uuid.UUID, error) {
	const prefix = "meeting:"
	if !strings.HasPrefix(ref, prefix) {
		return uuid.Nil, fmt.Errorf("unrecognized subject ref %q", ref)
	}
	return uuid.Parse(strings.TrimPrefix(ref, prefix))
}
