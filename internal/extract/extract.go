// Package extract recovers JSON values from free-form model output, which
// may arrive bare, fenced in a markdown code block, or buried in prose.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// excerptLen caps how much of the offending text an ExtractionError carries.
const excerptLen = 200

// ExtractionError reports text with no recoverable JSON in it.
type ExtractionError struct {
	Excerpt string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to parse response as JSON: no recoverable JSON found (got %q)", e.Excerpt)
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// JSON returns the first recoverable JSON document in text. Strategies are
// tried in order, first success wins:
//
//  1. the whole trimmed text,
//  2. the body of a fenced code block,
//  3. the earliest balanced {...} or [...] span.
func JSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ExtractionError{Excerpt: ""}
	}

	if isDocument(trimmed) {
		return trimmed, nil
	}

	if m := fencedJSON.FindStringSubmatch(trimmed); m != nil {
		inner := strings.TrimSpace(m[1])
		if isDocument(inner) {
			return inner, nil
		}
	}

	if span := balancedSpan(trimmed); span != "" && gjson.Valid(span) {
		return span, nil
	}

	return "", &ExtractionError{Excerpt: excerpt(trimmed)}
}

// Into extracts JSON from text and unmarshals it into v.
func Into(text string, v any) error {
	doc, err := JSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("failed to decode extracted JSON: %w", err)
	}
	return nil
}

// isDocument reports whether s is a complete JSON object or array. Bare
// scalars are not accepted here; a prose reply that happens to be a number
// must not parse as a success.
func isDocument(s string) bool {
	if len(s) == 0 || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return gjson.Valid(s)
}

// balancedSpan returns the earliest balanced {...} or [...] substring, using
// depth counting. Braces inside string literals are skipped, so trailing
// prose containing braces cannot truncate the span.
func balancedSpan(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	return s[:excerptLen] + "..."
}
