package pipeline

import (
	"strings"
	"testing"

	"xhs-agent/internal/models"
)

func snapshotWith(weighted []models.KeywordScore, counts []models.KeywordCount, titles ...string) *models.TrendingSnapshot {
	snap := &models.TrendingSnapshot{}
	for _, title := range titles {
		snap.Notes = append(snap.Notes, models.Note{Title: title})
	}
	if weighted != nil || counts != nil {
		snap.Analysis = &models.KeywordAnalysis{TopWeighted: weighted, TopKeywords: counts}
	}
	return snap
}

func TestSelectTopicPrefersWeightedKeywords(t *testing.T) {
	snap := snapshotWith(
		[]models.KeywordScore{{Word: "穿搭", Score: 900}, {Word: "美食", Score: 300}},
		[]models.KeywordCount{{Word: "美食", Count: 5}},
		"一篇笔记标题",
	)

	if got := SelectTopic(snap, nil); got != "穿搭" {
		t.Errorf("SelectTopic() = %q, want 穿搭", got)
	}
}

func TestSelectTopicSkipsPublishedAndShortWords(t *testing.T) {
	snap := snapshotWith(
		[]models.KeywordScore{{Word: "花", Score: 900}, {Word: "穿搭", Score: 800}, {Word: "美食", Score: 300}},
		nil,
	)
	published := map[string]bool{"穿搭": true}

	if got := SelectTopic(snap, published); got != "美食" {
		t.Errorf("SelectTopic() = %q, want 美食 (花 too short, 穿搭 published)", got)
	}
}

func TestSelectTopicFallsBackToNoteTitles(t *testing.T) {
	long := strings.Repeat("很", 30)
	snap := snapshotWith(nil, nil, long, "第二篇")

	got := SelectTopic(snap, nil)
	if want := strings.Repeat("很", 20); got != want {
		t.Errorf("SelectTopic() = %q, want first title truncated to 20 runes", got)
	}

	// The truncated form is what gets published, so it is also what the
	// dedup set matches against.
	got = SelectTopic(snap, map[string]bool{strings.Repeat("很", 20): true})
	if got != "第二篇" {
		t.Errorf("SelectTopic() = %q, want 第二篇", got)
	}
}

func TestSelectTopicFallsBackToKeywordCounts(t *testing.T) {
	snap := snapshotWith(
		[]models.KeywordScore{{Word: "穿搭", Score: 900}},
		[]models.KeywordCount{{Word: "咖啡", Count: 4}},
		"热门标题",
	)
	published := map[string]bool{"穿搭": true, "热门标题": true}

	if got := SelectTopic(snap, published); got != "咖啡" {
		t.Errorf("SelectTopic() = %q, want 咖啡", got)
	}
}

func TestSelectTopicNothingUsable(t *testing.T) {
	if got := SelectTopic(nil, nil); got != "" {
		t.Errorf("SelectTopic(nil) = %q, want empty", got)
	}

	snap := snapshotWith([]models.KeywordScore{{Word: "穿搭", Score: 1}}, nil, "标题")
	published := map[string]bool{"穿搭": true, "标题": true}
	if got := SelectTopic(snap, published); got != "" {
		t.Errorf("SelectTopic() = %q, want empty when everything is published", got)
	}
}
