package trending

import (
	"strconv"
	"strings"
)

// ParseCount converts a like-count label to an integer. The page renders
// counts as "1.2万", "3w", "4k" or plain digits; anything unreadable is 0.
func ParseCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parse := func(s string, multiplier float64) int {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return int(v * multiplier)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "万"):
		return parse(strings.Replace(text, "万", "", 1), 10000)
	case strings.Contains(lower, "w"):
		return parse(strings.Replace(lower, "w", "", 1), 10000)
	case strings.Contains(lower, "k"):
		return parse(strings.Replace(lower, "k", "", 1), 1000)
	}
	return parse(strings.ReplaceAll(text, ",", ""), 1)
}
