package topics

import (
	"encoding/json"
	"fmt"

	"github.com/meridiancrm/core/internal/db"
)

// rawTopicPayload is the wire shape meetings.raw_topics stores: the list of
// topics a transcript-processing integration extracted from one meeting.
type rawTopicPayload struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractRawTopics decodes a meeting's raw_topics JSON column into the
// per-topic candidates ClusterOne consumes.
func ExtractRawTopics(m db.Meeting) ([]RawTopic, error) {
	if len(m.RawTopics) == 0 {
		return nil, nil
	}

	var payload []rawTopicPayload
	if err := json.Unmarshal(m.RawTopics, &payload); err != nil {
		return nil, fmt.Errorf("decoding raw_topics for meeting %s: %w", m.ID, err)
	}

	out := make([]RawTopic, 0, len(payload))
	for _, p := range payload {
		out = append(out, RawTopic{
			MeetingID:   m.ID,
			TopicIndex:  p.Index,
			Title:       p.Title,
			Description: p.Description,
			OccurredAt:  m.OccurredAt,
		})
	}
	return out, nil
}
