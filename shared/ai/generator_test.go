package ai

import (
	"strings"
	"testing"

	"xhs-agent/internal/models"
)

func TestDraftTruncate(t *testing.T) {
	longTitle := strings.Repeat("题", 80)
	longContent := strings.Repeat("字", 1500)

	d := &Draft{
		Title:        longTitle,
		Content:      longContent,
		Topics:       []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"},
		ImagePrompts: []string{"a", "b", "c", "d", "e", "f"},
	}
	d.Truncate(4)

	if got := len([]rune(d.Title)); got != 50 {
		t.Errorf("title runes = %d, want 50", got)
	}
	if got := len([]rune(d.Content)); got != 1000 {
		t.Errorf("content runes = %d, want 1000", got)
	}
	if len(d.Topics) != 10 {
		t.Errorf("topics = %d, want 10", len(d.Topics))
	}
	if len(d.ImagePrompts) != 4 {
		t.Errorf("prompts = %d, want 4", len(d.ImagePrompts))
	}
}

func TestDraftTruncateIdempotent(t *testing.T) {
	d := &Draft{
		Title:        "AI摄影技巧分享",
		Content:      "一段完全合规的正文。",
		Topics:       []string{"摄影", "AI"},
		ImagePrompts: []string{"camera on a desk"},
	}
	before := *d
	d.Truncate(4)

	if d.Title != before.Title || d.Content != before.Content {
		t.Error("Truncate changed compliant title or content")
	}
	if len(d.Topics) != 2 || len(d.ImagePrompts) != 1 {
		t.Error("Truncate changed compliant topics or prompts")
	}

	// A second pass over an already-truncated draft changes nothing.
	d.Truncate(4)
	if len(d.Topics) != 2 {
		t.Error("second Truncate was not a no-op")
	}
}

func TestBuildCopywritingPrompt(t *testing.T) {
	prompt := buildCopywritingPrompt("咖啡拉花", "教程攻略", 3, "热门参考")

	for _, want := range []string{"咖啡拉花", StylePrompts["教程攻略"], "热门参考", "3 张"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildCopywritingPromptUnknownStyle(t *testing.T) {
	prompt := buildCopywritingPrompt("主题", "未知风格", 1, "")
	if !strings.Contains(prompt, StylePrompts["干货分享"]) {
		t.Error("unknown style should fall back to 干货分享")
	}
}

func TestTrendingContext(t *testing.T) {
	snap := &models.TrendingSnapshot{
		Notes: []models.Note{
			{Title: "AI摄影技巧", Likes: 500},
			{Title: "咖啡拉花入门", Likes: 200},
		},
		Analysis: &models.KeywordAnalysis{
			TopKeywords: []models.KeywordCount{{Word: "摄影", Count: 3}, {Word: "咖啡", Count: 2}},
		},
	}

	ctx := TrendingContext(snap)
	for _, want := range []string{"摄影", "AI摄影技巧", "点赞: 500"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}

	if got := TrendingContext(nil); got != "" {
		t.Errorf("TrendingContext(nil) = %q, want empty", got)
	}
}
