package models

import "fmt"

// Step identifies one stage of a pipeline run.
type Step string

const (
	StepQuotaCheck       Step = "quota_check"
	StepCheckingAuth     Step = "checking_auth"
	StepScrapingTrending Step = "scraping_trending"
	StepSelectingTopic   Step = "selecting_topic"
	StepGenerating       Step = "generating"
	StepPreviewing       Step = "previewing"
	StepPublishing       Step = "publishing"
	StepDone             Step = "done"
)

// StepEvent is one entry in the run's status stream.
type StepEvent struct {
	Step    Step
	Message string
}

type OutcomeStatus string

const (
	OutcomeSuccess      OutcomeStatus = "success"
	OutcomeFailure      OutcomeStatus = "failure"
	OutcomeQuotaReached OutcomeStatus = "quota_reached"
	OutcomeAuthRequired OutcomeStatus = "auth_required"
)

// Outcome is the final record of one pipeline run. On failure past the
// generation stage it still carries the generated package so nothing the
// model produced is lost.
type Outcome struct {
	Status         OutcomeStatus   `json:"status"`
	Step           Step            `json:"step"`
	Topic          string          `json:"topic,omitempty"`
	Package        *ContentPackage `json:"package,omitempty"`
	PublishedToday int             `json:"published_today"`
	MaxDailyPosts  int             `json:"max_daily_posts"`
	Message        string          `json:"message,omitempty"`
}

func (o *Outcome) GetSummary() string {
	switch o.Status {
	case OutcomeSuccess:
		if o.Package != nil && o.Step == StepPublishing {
			return fmt.Sprintf("published 《%s》 (%d/%d today)", o.Package.Title, o.PublishedToday, o.MaxDailyPosts)
		}
		if o.Package != nil {
			return fmt.Sprintf("preview ready: 《%s》", o.Package.Title)
		}
		return o.Message
	case OutcomeQuotaReached:
		return fmt.Sprintf("daily quota reached (%d/%d)", o.PublishedToday, o.MaxDailyPosts)
	case OutcomeAuthRequired:
		return "Xiaohongshu session invalid, login required"
	default:
		return fmt.Sprintf("failed at %s: %s", o.Step, o.Message)
	}
}
