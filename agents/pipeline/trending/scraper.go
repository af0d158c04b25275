// Package trending scrapes the Xiaohongshu explore and search pages for
// trending notes and derives keyword statistics from them.
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"xhs-agent/internal/models"
)

const defaultBaseURL = "https://www.xiaohongshu.com"

// CategoryChannels maps the configured category names to the explore page
// channel codes. 综合 is the catch-all default channel.
var CategoryChannels = map[string]string{
	"综合": "",
	"时尚": "fashion",
	"美食": "food",
	"旅行": "travel",
	"美妆": "beauty",
	"科技": "tech",
	"健身": "fitness",
	"宠物": "pet",
	"家居": "home",
	"教育": "education",
}

type Scraper struct {
	cookiesFile string
	userAgent   string
	baseURL     string
	timeout     time.Duration
}

func NewScraper(cookiesFile string) *Scraper {
	return &Scraper{
		cookiesFile: cookiesFile,
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		baseURL: defaultBaseURL,
		timeout: 30 * time.Second,
	}
}

// Scrape fetches one page of trending notes for the query and returns a
// fresh snapshot with derived analysis. Notes without a usable title are
// discarded; duplicates by title are dropped.
func (s *Scraper) Scrape(ctx context.Context, query models.TrendingQuery) (*models.TrendingSnapshot, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	query.Limit = limit

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	// colly drives its own request lifecycle; honor cancellation at the
	// stage boundary.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cookies := s.loadCookies(); len(cookies) > 0 {
		if err := c.SetCookies(s.baseURL, cookies); err != nil {
			return nil, fmt.Errorf("failed to set session cookies: %w", err)
		}
	}

	var notes []models.Note
	seen := make(map[string]bool)

	c.OnHTML("section.note-item, .note-item", func(e *colly.HTMLElement) {
		if len(notes) >= limit {
			return
		}
		note, ok := extractNote(e.DOM, s.baseURL)
		if !ok || seen[note.Title] {
			return
		}
		seen[note.Title] = true
		notes = append(notes, note)
	})

	var scrapeErr error
	c.OnError(func(_ *colly.Response, err error) {
		scrapeErr = err
	})

	if err := c.Visit(s.pageURL(query)); err != nil {
		return nil, fmt.Errorf("trending scrape failed: %w", err)
	}
	c.Wait()
	if scrapeErr != nil {
		return nil, fmt.Errorf("trending scrape failed: %w", scrapeErr)
	}

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Likes > notes[j].Likes })
	if len(notes) > limit {
		notes = notes[:limit]
	}

	return &models.TrendingSnapshot{
		Query:     query,
		ScrapedAt: time.Now(),
		Notes:     notes,
		Analysis:  Analyze(notes),
	}, nil
}

func (s *Scraper) pageURL(query models.TrendingQuery) string {
	if query.Keyword != "" {
		return fmt.Sprintf("%s/search_result?keyword=%s&source=web_search_result_notes",
			s.baseURL, url.QueryEscape(query.Keyword))
	}
	if channel := CategoryChannels[query.Category]; channel != "" {
		return fmt.Sprintf("%s/explore?channel=%s", s.baseURL, channel)
	}
	return s.baseURL + "/explore"
}

// extractNote pulls one note card apart. Selectors are tried in order
// because the page markup shifts between rollouts.
func extractNote(sel *goquery.Selection, baseURL string) (models.Note, bool) {
	note := models.Note{}

	for _, q := range []string{".title", "a .title", ".note-title", "span[class*='title']"} {
		if title := strings.TrimSpace(sel.Find(q).First().Text()); title != "" {
			note.Title = title
			break
		}
	}
	if note.Title == "" {
		// Fall back to the card's first text line.
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return note, false
		}
		line := strings.SplitN(text, "\n", 2)[0]
		if r := []rune(line); len(r) > 100 {
			line = string(r[:100])
		}
		note.Title = strings.TrimSpace(line)
		if note.Title == "" {
			return note, false
		}
	}

	for _, q := range []string{".like-wrapper .count", "[class*='like'] [class*='count']", "span[class*='like']"} {
		if text := strings.TrimSpace(sel.Find(q).First().Text()); text != "" {
			note.Likes = ParseCount(text)
			break
		}
	}

	if href, ok := sel.Find("a[href]").First().Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "http") {
			note.URL = href
		} else {
			note.URL = baseURL + href
		}
	}

	note.Cover, _ = sel.Find("img").First().Attr("src")

	for _, q := range []string{".author-wrapper .name", "[class*='author'] [class*='name']", ".nickname"} {
		if name := strings.TrimSpace(sel.Find(q).First().Text()); name != "" {
			note.Author = name
			break
		}
	}

	return note, true
}

// loadCookies reads the session cookie file for authenticated page access.
// A missing or unreadable file just means an anonymous scrape.
func (s *Scraper) loadCookies() []*http.Cookie {
	data, err := os.ReadFile(s.cookiesFile)
	if err != nil {
		return nil
	}

	var file struct {
		Cookies []struct {
			Name   string `json:"name"`
			Value  string `json:"value"`
			Domain string `json:"domain"`
		} `json:"cookies"`
	}
	if err := json.Unmarshal(data, &file); err != nil || file.Cookies == nil {
		if err := json.Unmarshal(data, &file.Cookies); err != nil {
			return nil
		}
	}

	var cookies []*http.Cookie
	for _, c := range file.Cookies {
		if c.Domain != "" && !strings.Contains(c.Domain, "xiaohongshu") {
			continue
		}
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}
