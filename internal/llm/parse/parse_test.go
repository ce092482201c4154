package parse

import (
	"strings"
	"testing"
)

func TestParseStrictJSON(t *testing.T) {
	res := Parse(`{"strengths": ["clear impact statements"], "score": 85}`)
	if res.Partial {
		t.Fatal("expected strict parse, got partial")
	}
	if res.Data["score"] != float64(85) {
		t.Errorf("score = %v", res.Data["score"])
	}
}

func TestParseJSONInsideProse(t *testing.T) {
	raw := `Sure! Here is the analysis you asked for:

{"weaknesses": ["no metrics"], "summary": "needs work {on} details"}

Let me know if you need anything else.`
	res := Parse(raw)
	if res.Partial {
		t.Fatalf("expected strict parse from embedded object, got partial: %+v", res)
	}
	if res.Data["summary"] != "needs work {on} details" {
		t.Errorf("summary = %v", res.Data["summary"])
	}
}

func TestParseCodeFence(t *testing.T) {
	raw := "```json\n{\"match_percentage\": 72}\n```"
	res := Parse(raw)
	if res.Partial {
		t.Fatal("expected strict parse from code fence")
	}
	if res.Data["match_percentage"] != float64(72) {
		t.Errorf("match_percentage = %v", res.Data["match_percentage"])
	}
}

func TestParseBracesInsideStrings(t *testing.T) {
	raw := `prefix {"note": "uses {braces} and \"quotes\""} suffix`
	res := Parse(raw)
	if res.Partial {
		t.Fatal("expected strict parse")
	}
	if res.Data["note"] != `uses {braces} and "quotes"` {
		t.Errorf("note = %v", res.Data["note"])
	}
}

func TestParseHeuristicListFallback(t *testing.T) {
	raw := `The main strengths are:
- Strong technical vocabulary
* Quantified achievements
1. Clear section structure`
	res := Parse(raw)
	if !res.Partial {
		t.Fatal("expected partial result")
	}
	if res.Failed() {
		t.Fatal("expected heuristic data, got failure")
	}
	items, ok := res.Data["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("items = %v", res.Data["items"])
	}
	if items[0] != "Strong technical vocabulary" {
		t.Errorf("items[0] = %v", items[0])
	}
	if res.Raw != raw {
		t.Error("raw text not retained")
	}
}

func TestParseHeuristicKeyValueFallback(t *testing.T) {
	raw := "Match Percentage: 64\nVerdict: partial fit"
	res := Parse(raw)
	if !res.Partial || res.Failed() {
		t.Fatalf("expected partial data, got %+v", res)
	}
	if res.Data["match_percentage"] != "64" {
		t.Errorf("match_percentage = %v", res.Data["match_percentage"])
	}
	if res.Data["verdict"] != "partial fit" {
		t.Errorf("verdict = %v", res.Data["verdict"])
	}
}

func TestParseTotalFailure(t *testing.T) {
	raw := "I cannot help with that request."
	res := Parse(raw)
	if !res.Failed() {
		t.Fatalf("expected failure, got %+v", res.Data)
	}
	if res.Raw != raw {
		t.Error("raw text not retained on failure")
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		res := Parse(raw)
		if !res.Failed() {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"{", "}", `{"a":`, "``````", strings.Repeat("{", 1000),
		`{"a": "unterminated`, "- \n- \n", ": value with no key",
	}
	for _, raw := range inputs {
		Parse(raw) // must not panic
	}
}
