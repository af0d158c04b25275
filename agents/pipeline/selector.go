package pipeline

import "xhs-agent/internal/models"

// SelectTopic picks the next content topic from a trending snapshot.
// Candidates are tried in order of signal quality: engagement-weighted
// keywords first, then raw note titles in snapshot order, then plain
// keyword counts. A candidate already in the published set is skipped so
// repeated runs keep moving down the trend list. Returns "" when the
// snapshot offers nothing usable.
func SelectTopic(snap *models.TrendingSnapshot, published map[string]bool) string {
	if snap == nil {
		return ""
	}

	if snap.Analysis != nil {
		for _, kw := range snap.Analysis.TopWeighted {
			if usable(kw.Word, published) {
				return kw.Word
			}
		}
	}

	for _, note := range snap.Notes {
		title := truncateRunes(note.Title, 20)
		if title != "" && !published[title] {
			return title
		}
	}

	if snap.Analysis != nil {
		for _, kw := range snap.Analysis.TopKeywords {
			if usable(kw.Word, published) {
				return kw.Word
			}
		}
	}

	return ""
}

func usable(word string, published map[string]bool) bool {
	return len([]rune(word)) >= 2 && !published[word]
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
