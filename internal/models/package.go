package models

import "time"

// ContentPackage is one generated title/body/topics/image bundle ready for
// preview or publish. Images may be shorter than ImagePrompts when some
// generations failed; it never exceeds it.
type ContentPackage struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Topics       []string  `json:"topics"`
	ImagePrompts []string  `json:"image_prompts"`
	Images       []string  `json:"images"`
	Topic        string    `json:"topic"`
	Style        string    `json:"style"`
	GeneratedAt  time.Time `json:"generated_at"`
}
