// Package parse extracts structured JSON values from noisy LLM text output.
//
// Models wrap their JSON in markdown fences, prefix it with prose, or echo
// parts of the prompt. The extraction here strips fences, scans for the first
// balanced object or array with a depth-tracking scanner (a greedy regex would
// silently capture truncated or concatenated JSON under nested braces), and
// only then falls back to parsing the whole trimmed text.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnparseable signals that no JSON value could be extracted from the text.
var ErrUnparseable = eris.New("parse: no JSON value found in response")

// ErrWrongShape signals that a JSON value was extracted but has the wrong
// top-level shape (e.g. an object where an array was required).
var ErrWrongShape = eris.New("parse: response JSON has wrong shape")

// StripFences removes a leading/trailing markdown code fence if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}
	return strings.TrimSpace(text)
}

// ExtractSpan returns the first balanced JSON span starting with open and
// ending with the matching close, tracking nesting depth and string literals.
// Returns ("", false) if no balanced span exists.
func ExtractSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Object extracts and unmarshals the first JSON object from text into dst.
// Returns ErrWrongShape when the text holds an array instead, ErrUnparseable
// when nothing parses.
func Object(text string, dst any) error {
	return extract(text, dst, '{', '}', '[')
}

// Array extracts and unmarshals the first JSON array from text into dst.
// Returns ErrWrongShape when the text holds an object instead.
func Array(text string, dst any) error {
	return extract(text, dst, '[', ']', '{')
}

func extract(text string, dst any, open, close, wrongOpen byte) error {
	cleaned := StripFences(text)
	if cleaned == "" {
		return ErrUnparseable
	}

	if span, ok := ExtractSpan(cleaned, open, close); ok {
		if err := json.Unmarshal([]byte(span), dst); err == nil {
			return nil
		}
	}

	// The whole trimmed text might itself be the value.
	if err := json.Unmarshal([]byte(cleaned), dst); err == nil {
		return nil
	}

	// Distinguish "the model answered in the wrong shape" from "no JSON at
	// all": a balanced span of the other bracket kind that parses as raw
	// JSON means the response was structured but mis-shaped.
	if span, ok := ExtractSpan(cleaned, wrongOpen, matching(wrongOpen)); ok {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(span), &raw); err == nil {
			return ErrWrongShape
		}
	}

	return ErrUnparseable
}

func matching(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

// Lines is the heuristic fallback for stages that can recover from plain-text
// answers: it splits the text into lines, strips enumeration markers ("1.",
// "- "), and drops blanks and fragments shorter than three characters.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			if _, rest, ok := strings.Cut(line, "."); ok {
				line = strings.TrimSpace(rest)
			}
		} else if strings.HasPrefix(line, "- ") {
			line = strings.TrimSpace(line[2:])
		} else if strings.HasPrefix(line, "* ") {
			line = strings.TrimSpace(line[2:])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
