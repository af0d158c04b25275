// Package recovery extracts a well-formed JSON object from the imperfect
// free-form text an LLM returns: fenced code blocks, prose around the
// object, trailing commas and unescaped quotes inside string values.
package recovery

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Error reports that every extraction fallback failed. It carries only the
// length of the source text so the error payload stays bounded.
type Error struct {
	Length int
}

func (e *Error) Error() string {
	return fmt.Sprintf("could not recover a JSON object from LLM output (%d chars)", e.Length)
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Extract locates a JSON object in text and decodes it into v. Fallbacks are
// tried in order, first success wins: strict decode of the fence-stripped
// text, decode after a repair pass, then the same two attempts on the
// brace-matched substring starting at the first '{'.
func Extract(text string, v any) error {
	src := stripFence(strings.TrimSpace(text))

	attempt := func(candidate func() string) Strategy[string] {
		return func() (string, bool) {
			c := candidate()
			if c == "" || !json.Valid([]byte(c)) {
				return "", false
			}
			return c, true
		}
	}

	candidate, ok := FirstSuccess(
		attempt(func() string { return src }),
		attempt(func() string { return Repair(src) }),
		attempt(func() string { return matchBraces(src) }),
		attempt(func() string { return Repair(matchBraces(src)) }),
	)
	if !ok {
		return &Error{Length: len(text)}
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return &Error{Length: len(text)}
	}
	return nil
}

// stripFence removes a leading markdown code fence and its closing marker.
// The closing fence is located by scanning backward from the end, so fences
// containing backtick-like sequences inside string content do not confuse it.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	if end <= 1 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// Repair fixes the common LLM JSON failure modes: trailing commas before a
// closing brace or bracket, literal newlines inside string values, and
// unescaped quotes inside string values. A quote inside a string counts as
// the closing delimiter only when the next non-whitespace character is a
// structural one (, : } ]) or the text ends; otherwise it is escaped in
// place. The lookahead can misread a quote directly followed by a comma
// that belongs to the sentence itself; that limitation is accepted.
func Repair(text string) string {
	if text == "" {
		return ""
	}
	text = trailingComma.ReplaceAllString(text, "$1")

	var out strings.Builder
	out.Grow(len(text))
	inString := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if !inString {
			out.WriteByte(ch)
			if ch == '"' {
				inString = true
			}
			continue
		}

		switch ch {
		case '\\':
			// Copy the escape pair verbatim, no reinterpretation.
			out.WriteByte(ch)
			if i+1 < len(text) {
				i++
				out.WriteByte(text[i])
			}
		case '\n':
			out.WriteString(`\n`)
		case '"':
			if closesString(text[i+1:]) {
				out.WriteByte(ch)
				inString = false
			} else {
				out.WriteString(`\"`)
			}
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}

// closesString reports whether a quote followed by rest is a structural
// closing quote: the next non-whitespace character is , : } ] or the text
// is exhausted.
func closesString(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ',', ':', '}', ']':
		return true
	}
	return false
}

// matchBraces returns the substring from the first '{' to its matching
// closing brace, counted by depth without regard to string state, or ""
// when no balanced object exists.
func matchBraces(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
