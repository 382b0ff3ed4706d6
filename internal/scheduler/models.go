package scheduler

import (
	"time"

	"github.com/freshdesk/jaya-lib/pkg/models"
)

// JobPayload is the opaque payload a schedule carries back to us when it
// fires. RuleID is the stable rule identifier; RuleIndex is kept for
// payloads created before rules carried stable IDs.
type JobPayload struct {
	JobID           string                     `json:"job_id"`
	RuleID          string                     `json:"rule_id,omitempty"`
	RuleIndex       int                        `json:"rule_index"`
	OriginalPayload models.ProductEventPayload `json:"original_payload"`
}

// Schedule is one pending timer held by the external scheduler, keyed by
// JobID. At most one schedule exists per JobID at a time; the engine, not
// the scheduler, is responsible for that exclusivity.
type Schedule struct {
	JobID         string     `json:"job_id"`
	Payload       JobPayload `json:"payload"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	WebhookURL    string     `json:"webhook_url"`
}

// CallbackPayload is what the scheduler posts to the webhook when a
// schedule fires.
type CallbackPayload struct {
	Data JobPayload `json:"data"`
}
