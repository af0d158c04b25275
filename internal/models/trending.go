package models

import "time"

// Note is a single trending post card scraped from the explore or search page.
type Note struct {
	Title  string `json:"title"`
	Likes  int    `json:"likes"`
	Author string `json:"author,omitempty"`
	URL    string `json:"url,omitempty"`
	Cover  string `json:"cover,omitempty"`
}

// TrendingQuery describes what a snapshot was scraped for.
type TrendingQuery struct {
	Category string `json:"category,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Limit    int    `json:"limit"`
}

// Tag returns the label used in snapshot file names.
func (q TrendingQuery) Tag() string {
	if q.Keyword != "" {
		return q.Keyword
	}
	return q.Category
}

type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type KeywordScore struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// KeywordAnalysis is derived from a snapshot's notes and recomputed fresh
// every time; it is never mutated in place.
type KeywordAnalysis struct {
	TotalNotes  int            `json:"total_notes"`
	AvgLikes    float64        `json:"avg_likes"`
	TopKeywords []KeywordCount `json:"top_keywords"`
	TopWeighted []KeywordScore `json:"top_weighted_keywords"`
}

// TrendingSnapshot is one point-in-time capture of trending notes plus the
// derived keyword analysis. Immutable once written to storage.
type TrendingSnapshot struct {
	Query     TrendingQuery    `json:"query"`
	ScrapedAt time.Time        `json:"scraped_at"`
	Notes     []Note           `json:"notes"`
	Analysis  *KeywordAnalysis `json:"analysis,omitempty"`
}
