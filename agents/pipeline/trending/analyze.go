package trending

import (
	"sort"
	"sync"

	"github.com/go-ego/gse"

	"xhs-agent/internal/models"
)

// Words that are frequent in titles but say nothing about the topic.
var stopwords = map[string]bool{
	"的": true, "了": true, "在": true, "是": true, "我": true, "有": true,
	"和": true, "就": true, "不": true, "人": true, "都": true, "一": true,
	"一个": true, "上": true, "也": true, "很": true, "到": true, "说": true,
	"要": true, "去": true, "你": true, "会": true, "着": true, "没有": true,
	"看": true, "好": true, "自己": true, "这": true, "他": true, "她": true,
	"吗": true, "什么": true, "那": true, "最": true, "出": true, "真的": true,
	"太": true, "让": true, "把": true, "被": true, "从": true, "还是": true,
	"还": true, "啊": true, "呢": true, "吧": true, "嘛": true, "哦": true,
	"哈": true, "呀": true, "啦": true, "可以": true, "怎么": true,
	"这个": true, "那个": true, "如何": true, "为什么": true, "但": true,
	"但是": true, "因为": true, "所以": true, "如果": true, "虽然": true,
	"而且": true, "或者": true, "以及": true,
}

var (
	segmenter gse.Segmenter
	segOnce   sync.Once
)

func cutWords(text string) []string {
	segOnce.Do(func() {
		// Embedded default dictionary; good enough for title segmentation.
		_ = segmenter.LoadDict()
	})
	return segmenter.Cut(text, true)
}

// Analyze derives the keyword statistics for a set of notes. The result is
// always computed fresh from the notes, never carried over between
// snapshots.
func Analyze(notes []models.Note) *models.KeywordAnalysis {
	if len(notes) == 0 {
		return nil
	}

	counts := make(map[string]int)
	weighted := make(map[string]int)
	totalLikes := 0

	for _, note := range notes {
		totalLikes += note.Likes
		likes := note.Likes
		if likes == 0 {
			likes = 1
		}

		seen := make(map[string]bool)
		for _, w := range cutWords(note.Title) {
			if len([]rune(w)) < 2 || stopwords[w] {
				continue
			}
			counts[w]++
			// Weight each keyword once per note it appears in.
			if !seen[w] {
				weighted[w] += likes
				seen[w] = true
			}
		}
	}

	analysis := &models.KeywordAnalysis{
		TotalNotes: len(notes),
		AvgLikes:   float64(totalLikes) / float64(len(notes)),
	}

	for _, word := range rankedKeys(counts) {
		analysis.TopKeywords = append(analysis.TopKeywords, models.KeywordCount{Word: word, Count: counts[word]})
		if len(analysis.TopKeywords) == 20 {
			break
		}
	}
	for _, word := range rankedKeys(weighted) {
		analysis.TopWeighted = append(analysis.TopWeighted, models.KeywordScore{Word: word, Score: weighted[word]})
		if len(analysis.TopWeighted) == 20 {
			break
		}
	}

	return analysis
}

// rankedKeys sorts by value descending, breaking ties by word so the
// ordering is deterministic.
func rankedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
