package models

import (
	"fmt"
	"time"
)

// PublishResult is the outcome of one publish call against the bridge.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// PublishLogEntry is one line in the per-day publish log. The log is the
// sole durable state: the dedup set and the daily quota count are both
// derived from it.
type PublishLogEntry struct {
	PublishedAt   time.Time     `json:"published_at"`
	Title         string        `json:"title"`
	ContentLength int           `json:"content_length"`
	ImageCount    int           `json:"image_count"`
	Topics        []string      `json:"topics"`
	Result        PublishResult `json:"result"`
}

// ValidationError reports a field that violates publish policy bounds and
// could not be safely truncated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}
