// Package parse extracts structured data from free-form model output.
// Models frequently wrap the requested JSON in prose or code fences, and
// sometimes return no JSON at all; this package locates the most likely
// payload, decodes it strictly, and falls back to pattern-based extraction
// rather than failing.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Result is the tagged outcome of a parse. Exactly one of three shapes:
// strict success (Data set, Partial false), heuristic fallback (Data set,
// Partial true), or total failure (Data nil, Partial true). Raw always
// carries the original text when Partial is true so callers can capture it
// for diagnostics.
type Result struct {
	Data    map[string]any
	Partial bool
	Raw     string
}

// Failed reports that both the strict and heuristic paths produced nothing.
func (r Result) Failed() bool {
	return r.Data == nil
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Parse never returns an error: malformed input degrades to a heuristic
// partial result, and input with no extractable structure yields a failure
// marker that still carries the raw text.
func Parse(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Partial: true, Raw: raw}
	}

	for _, candidate := range jsonCandidates(trimmed) {
		var data map[string]any
		if err := json.Unmarshal([]byte(candidate), &data); err == nil {
			return Result{Data: data}
		}
	}

	if data := heuristicExtract(trimmed); data != nil {
		return Result{Data: data, Partial: true, Raw: raw}
	}
	return Result{Partial: true, Raw: raw}
}

// jsonCandidates returns substrings most likely to hold the JSON payload, in
// decreasing order of confidence: the whole text, fenced code blocks, then
// the first brace-balanced object.
func jsonCandidates(text string) []string {
	candidates := []string{text}
	for _, m := range codeFence.FindAllStringSubmatch(text, -1) {
		if block := strings.TrimSpace(m[1]); block != "" {
			candidates = append(candidates, block)
		}
	}
	if block := balancedObject(text); block != "" {
		candidates = append(candidates, block)
	}
	return candidates
}

// balancedObject finds the first top-level {...} span, tracking string
// literals so braces inside values do not end the scan early.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
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

var (
	listItem  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	keyValue  = regexp.MustCompile(`^\s*"?([A-Za-z][A-Za-z0-9 _-]{0,40})"?\s*[:=]\s*(.+?)\s*,?\s*$`)
	quoteTrim = `"'` + "`"
)

// heuristicExtract synthesizes a best-effort structure from list items and
// key/value-looking lines. Returns nil when the text has neither.
func heuristicExtract(text string) map[string]any {
	var items []any
	fields := map[string]any{}

	for _, line := range strings.Split(text, "\n") {
		if m := listItem.FindStringSubmatch(line); m != nil {
			if item := strings.Trim(strings.TrimSpace(m[1]), quoteTrim); item != "" {
				items = append(items, item)
			}
			continue
		}
		if m := keyValue.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "_"))
			value := strings.Trim(strings.TrimSpace(m[2]), quoteTrim)
			if key != "" && value != "" && value != "{" && value != "[" {
				fields[key] = value
			}
		}
	}

	if len(items) == 0 && len(fields) == 0 {
		return nil
	}
	out := map[string]any{}
	if len(items) > 0 {
		out["items"] = items
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
