package trending

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xhs-agent/internal/models"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"123", 123},
		{"1,234", 1234},
		{"1.2万", 12000},
		{"3w", 30000},
		{"3W", 30000},
		{"4k", 4000},
		{"4.5K", 4500},
		{"赞", 0},
	}

	for _, tt := range tests {
		if got := ParseCount(tt.text); got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestAnalyzeWeightsByEngagement(t *testing.T) {
	notes := []models.Note{
		{Title: "AI摄影技巧", Likes: 500},
		{Title: "咖啡拉花入门", Likes: 200},
	}

	analysis := Analyze(notes)
	if analysis == nil {
		t.Fatal("Analyze() = nil")
	}
	if analysis.TotalNotes != 2 {
		t.Errorf("TotalNotes = %d, want 2", analysis.TotalNotes)
	}
	if analysis.AvgLikes != 350 {
		t.Errorf("AvgLikes = %v, want 350", analysis.AvgLikes)
	}

	// Every keyword is weighted by the engagement of the note it came
	// from, so scores only take the two notes' like counts.
	photoScore, coffeeScore := 0, 0
	for _, kw := range analysis.TopWeighted {
		if kw.Score != 500 && kw.Score != 200 {
			t.Errorf("keyword %q has score %d, want 500 or 200", kw.Word, kw.Score)
		}
		if strings.Contains(kw.Word, "摄影") {
			photoScore = kw.Score
		}
		if strings.Contains(kw.Word, "咖啡") {
			coffeeScore = kw.Score
		}
	}
	if photoScore != 500 {
		t.Errorf("weighted score for 摄影 keyword = %d, want 500", photoScore)
	}
	if coffeeScore != 200 {
		t.Errorf("weighted score for 咖啡 keyword = %d, want 200", coffeeScore)
	}

	// Highest-engagement keyword ranks first.
	if len(analysis.TopWeighted) == 0 || analysis.TopWeighted[0].Score != 500 {
		t.Errorf("TopWeighted[0] = %+v, want score 500", analysis.TopWeighted)
	}
}

func TestAnalyzeFiltersStopwordsAndShortWords(t *testing.T) {
	notes := []models.Note{{Title: "我的一天真的很好", Likes: 10}}

	analysis := Analyze(notes)
	if analysis == nil {
		t.Fatal("Analyze() = nil")
	}
	for _, kw := range analysis.TopKeywords {
		if stopwords[kw.Word] {
			t.Errorf("stopword %q leaked into keywords", kw.Word)
		}
		if len([]rune(kw.Word)) < 2 {
			t.Errorf("single-rune word %q leaked into keywords", kw.Word)
		}
	}
}

func TestAnalyzeEmptyNotes(t *testing.T) {
	if got := Analyze(nil); got != nil {
		t.Errorf("Analyze(nil) = %+v, want nil", got)
	}
}

const explorePage = `<!DOCTYPE html>
<html><body><div class="feeds-page">
<section class="note-item">
  <a href="/explore/abc123"><span class="title">AI摄影技巧大全</span></a>
  <img src="https://img.example.com/cover1.jpg"/>
  <div class="author-wrapper"><span class="name">小王</span></div>
  <div class="like-wrapper"><span class="count">1.2万</span></div>
</section>
<section class="note-item">
  <a href="/explore/def456"><span class="title">咖啡拉花入门教程</span></a>
  <div class="like-wrapper"><span class="count">800</span></div>
</section>
<section class="note-item">
  <a href="/explore/dup"><span class="title">AI摄影技巧大全</span></a>
  <div class="like-wrapper"><span class="count">5</span></div>
</section>
<section class="note-item"><a href="/explore/empty"></a></section>
</div></body></html>`

func TestScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, explorePage)
	}))
	defer server.Close()

	s := NewScraper(filepath.Join(t.TempDir(), "no-cookies.json"))
	s.baseURL = server.URL

	snap, err := s.Scrape(context.Background(), models.TrendingQuery{Category: "综合", Limit: 20})
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}

	if len(snap.Notes) != 2 {
		t.Fatalf("got %d notes, want 2 (duplicate title and empty card dropped)", len(snap.Notes))
	}

	// Sorted by likes descending.
	if snap.Notes[0].Title != "AI摄影技巧大全" || snap.Notes[0].Likes != 12000 {
		t.Errorf("Notes[0] = %+v, want AI摄影技巧大全 with 12000 likes", snap.Notes[0])
	}
	if snap.Notes[0].URL != server.URL+"/explore/abc123" {
		t.Errorf("URL = %q, want absolute", snap.Notes[0].URL)
	}
	if snap.Notes[0].Author != "小王" {
		t.Errorf("Author = %q, want 小王", snap.Notes[0].Author)
	}
	if snap.Analysis == nil {
		t.Fatal("Analysis = nil, want derived keywords")
	}
}

func TestScrapeRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>")
		for i := 0; i < 30; i++ {
			fmt.Fprintf(w, `<section class="note-item"><span class="title">笔记标题%d</span></section>`, i)
		}
		fmt.Fprint(w, "</body></html>")
	}))
	defer server.Close()

	s := NewScraper("")
	s.baseURL = server.URL

	snap, err := s.Scrape(context.Background(), models.TrendingQuery{Category: "综合", Limit: 5})
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(snap.Notes) != 5 {
		t.Errorf("got %d notes, want limit 5", len(snap.Notes))
	}
}

func TestScrapeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	s := NewScraper("")
	s.baseURL = server.URL

	if _, err := s.Scrape(context.Background(), models.TrendingQuery{Category: "综合"}); err == nil {
		t.Fatal("Scrape() expected error for HTTP 403")
	}
}

func TestLoadCookiesFormats(t *testing.T) {
	dir := t.TempDir()

	v2 := filepath.Join(dir, "v2.json")
	os.WriteFile(v2, []byte(`{"cookies":[{"name":"web_session","value":"x","domain":".xiaohongshu.com"},{"name":"other","value":"y","domain":"evil.com"}]}`), 0644)

	s := NewScraper(v2)
	cookies := s.loadCookies()
	if len(cookies) != 1 || cookies[0].Name != "web_session" {
		t.Errorf("v2 cookies = %+v, want only web_session", cookies)
	}

	v1 := filepath.Join(dir, "v1.json")
	os.WriteFile(v1, []byte(`[{"name":"a1","value":"z"}]`), 0644)
	s = NewScraper(v1)
	if cookies := s.loadCookies(); len(cookies) != 1 || cookies[0].Name != "a1" {
		t.Errorf("v1 cookies = %+v, want a1", cookies)
	}

	s = NewScraper(filepath.Join(dir, "missing.json"))
	if cookies := s.loadCookies(); cookies != nil {
		t.Errorf("missing file cookies = %+v, want nil", cookies)
	}
}
