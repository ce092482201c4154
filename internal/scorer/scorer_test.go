package scorer

import (
	"context"
	"math"
	"strings"
	"testing"

	"resume-insight/internal/cache"
	"resume-insight/internal/llm"
)

type fakeClient struct {
	respond func(prompt string) (string, error)
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (llm.RawResponse, error) {
	text, err := f.respond(prompt)
	if err != nil {
		return llm.RawResponse{}, err
	}
	return llm.RawResponse{Text: text, Model: "test-model"}, nil
}

func (f *fakeClient) Probe(ctx context.Context) llm.ProbeResult {
	return llm.ProbeResult{Reachable: true}
}

func newTestService(t *testing.T, respond func(prompt string) (string, error)) *Service {
	t.Helper()
	return &Service{
		LLM:   &fakeClient{respond: respond},
		Cache: cache.New(cache.Options{MemoryMaxEntries: 64, Dir: t.TempDir()}),
	}
}

func unavailable(string) (string, error) { return "", llm.ErrUnavailable }

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, ClassExcellent},
		{90, ClassExcellent},
		{89, ClassGood},
		{75, ClassGood},
		{74, ClassAverage},
		{60, ClassAverage},
		{59, ClassNeedsImprovement},
		{0, ClassNeedsImprovement},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestCompletenessScore(t *testing.T) {
	full := "Contact info\nSummary\nWork Experience\nEducation\nSkills"
	if score, _ := completenessScore(full); score != 100 {
		t.Errorf("all sections: score = %d, want 100", score)
	}

	partial := "Summary\nWork Experience\nSkills"
	score, details := completenessScore(partial)
	if score != 60 {
		t.Errorf("three sections: score = %d, want 60", score)
	}
	missing, _ := details["missing_sections"].([]string)
	if len(missing) != 2 {
		t.Errorf("missing_sections = %v", missing)
	}
}

func TestFormattingScoreBands(t *testing.T) {
	// Sparse text: too short, no bullets, no section breaks.
	short := "just a few words here"
	score, _ := formattingScore(short)
	if want := (40 + 50 + 50 + 95) / 4; score != want {
		t.Errorf("sparse text: score = %d, want %d", score, want)
	}

	// Well-formed: in the length band, bulleted, many lines, clear breaks.
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString("Section heading\n")
		for j := 0; j < 8; j++ {
			b.WriteString("- maintained reliable services across regions for internal platform teams every quarter\n")
		}
		b.WriteString("\n")
	}
	score, details := formattingScore(b.String())
	if want := (100 + 90 + 95 + 95) / 4; score != want {
		t.Errorf("well-formed text: score = %d, want %d (details %v)", score, want, details)
	}
}

func TestContentQualityDegradesWithoutModel(t *testing.T) {
	svc := newTestService(t, unavailable)

	// Two action verbs and one numeric metric.
	text := "Led the team. Improved throughput by 25%."
	score, _, degraded := svc.contentQualityScore(context.Background(), text)
	if !degraded {
		t.Fatal("expected degraded content quality with model down")
	}
	// verbs: 2*15=30, metrics: 1*10=10, manual half = (30+10)/2 = 20.
	if score != 20 {
		t.Errorf("score = %d, want 20", score)
	}
}

func TestKeywordRelevanceWithTargets(t *testing.T) {
	svc := newTestService(t, unavailable)
	text := "Built services in Python on AWS infrastructure"

	score, _ := svc.keywordRelevanceScore(context.Background(), text, []string{"Python", "AWS"})
	if score != 100 {
		t.Errorf("both present: score = %d, want 100", score)
	}

	score, details := svc.keywordRelevanceScore(context.Background(), text, []string{"Python", "Kubernetes"})
	if score != 50 {
		t.Errorf("one of two: score = %d, want 50", score)
	}
	missing, _ := details["missing_keywords"].([]string)
	if len(missing) != 1 || missing[0] != "Kubernetes" {
		t.Errorf("missing_keywords = %v", missing)
	}

	score, _ = svc.keywordRelevanceScore(context.Background(), "unrelated text", []string{"Python"})
	if score != 40 {
		t.Errorf("none present: score = %d, want 40", score)
	}
}

func TestScoreNeverFailsOnModelOutage(t *testing.T) {
	svc := newTestService(t, unavailable)

	report, err := svc.Score(context.Background(), "", buildResume(), []string{"Python", "AWS"})
	if err != nil {
		t.Fatalf("Score with model down: %v", err)
	}
	if !report.Degraded {
		t.Error("report should be marked degraded")
	}
	if len(report.Suggestions) == 0 {
		t.Error("rule-text suggestions expected even without the model")
	}
	if report.Overall < 0 || report.Overall > 100 {
		t.Errorf("Overall = %d out of range", report.Overall)
	}
}

func TestScoreInvalidInput(t *testing.T) {
	svc := newTestService(t, unavailable)
	if _, err := svc.Score(context.Background(), "", "  \n ", nil); err != ErrInvalidInput {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// buildResume returns a resume with all five canonical sections, a word
// count inside the optimal band, exactly three recognized action verbs
// (led, improved, delivered), and exactly two quantifiable tokens
// ("8 years" and "25%"). Target keywords Python and AWS are present.
func buildResume() string {
	var b strings.Builder
	b.WriteString("Jane Roe\nContact\nEmail jane at example dot com\nLinkedIn profile available on request\n\n")
	b.WriteString("Summary\nPlatform engineer with 8 years of building backend systems in Python on AWS.\n\n")
	b.WriteString("Experience\n")
	b.WriteString("- Led a platform migration without downtime\n")
	b.WriteString("- Improved request reliability by 25%\n")
	b.WriteString("- Delivered features ahead of schedule\n")
	filler := "maintained reliable distributed services across regions while mentoring engineers and writing documentation for internal platform teams every quarter of the year without fail "
	for i := 0; i < 22; i++ {
		b.WriteString("- ")
		b.WriteString(filler)
		b.WriteString("\n")
	}
	b.WriteString("\nEducation\nBachelor of Science in Computer Science from a state university\n\n")
	b.WriteString("Skills\n- Python\n- AWS\n- Linux\n- Terraform\n")
	return b.String()
}

func endToEndRespond(prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "content quality"):
		return `{"score": 80, "explanation": "solid impact framing", "strengths": ["a", "b", "c"], "improvements": ["x", "y", "z"]}`, nil
	case strings.Contains(prompt, "experience quality and progression"):
		return `{"years_detected": null, "progression": "senior", "coherence": 90, "depth": 80, "explanation": "coherent growth"}`, nil
	case strings.Contains(prompt, "scored weakest"):
		return `{"suggestions": ["Add more quantified impact statements to your bullet points"]}`, nil
	}
	return "", llm.ErrUnavailable
}

func TestScoreEndToEnd(t *testing.T) {
	svc := newTestService(t, endToEndRespond)

	report, err := svc.Score(context.Background(), "", buildResume(), []string{"Python", "AWS"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if report.Degraded {
		t.Error("report should not be degraded")
	}

	byName := map[string]ComponentScore{}
	for _, comp := range report.Components {
		byName[comp.Name] = comp
	}

	if got := byName[ComponentCompleteness].Score; got != 100 {
		t.Errorf("completeness = %d, want 100", got)
	}
	if got := byName[ComponentKeywords].Score; got != 100 {
		t.Errorf("keyword relevance = %d, want 100", got)
	}
	if got := byName[ComponentFormatting].Score; got != 95 {
		t.Errorf("formatting = %d, want 95", got)
	}
	// Content quality: model 80 at 60%, manual half (3 verbs -> 45,
	// 2 metrics -> 20, averaged 32.5) at 40%.
	if got := byName[ComponentContentQuality].Score; got != 61 {
		t.Errorf("content quality = %d, want 61", got)
	}
	// Experience: 8 years -> 80 at 40%, senior -> 95 at 30%, coherence 90
	// at 30%.
	if got := byName[ComponentExperience].Score; got != 87 {
		t.Errorf("experience = %d, want 87", got)
	}

	if report.Overall != 86 {
		t.Errorf("Overall = %d, want 86", report.Overall)
	}
	if report.Classification != ClassGood {
		t.Errorf("Classification = %q, want %q", report.Classification, ClassGood)
	}

	// Content quality is the only component under the suggestion threshold,
	// and the model rephrased its rule text.
	if len(report.Suggestions) != 1 || !strings.Contains(report.Suggestions[0], "quantified impact") {
		t.Errorf("Suggestions = %v", report.Suggestions)
	}
}

func TestScoreAdditivity(t *testing.T) {
	svc := newTestService(t, endToEndRespond)
	report, err := svc.Score(context.Background(), "", buildResume(), []string{"Python", "AWS"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	var sum float64
	for _, comp := range report.Components {
		if got := float64(comp.Score) * comp.Weight; math.Abs(got-comp.Weighted) > 1e-9 {
			t.Errorf("%s: Weighted = %v, want %v", comp.Name, comp.Weighted, got)
		}
		sum += comp.Weighted
	}
	if want := int(math.Round(sum)); report.Overall != want {
		t.Errorf("Overall = %d, want rounded weighted sum %d", report.Overall, want)
	}
	if report.Classification != Classify(report.Overall) {
		t.Errorf("Classification = %q inconsistent with Overall %d", report.Classification, report.Overall)
	}
}

func TestSuggestionsRankWeakestFirst(t *testing.T) {
	svc := newTestService(t, unavailable)

	report := ScoreReport{Degraded: true}
	scores := map[string]int{
		ComponentCompleteness:   50,
		ComponentContentQuality: 60,
		ComponentFormatting:     40,
		ComponentKeywords:       80,
		ComponentExperience:     30,
	}
	for _, name := range componentOrder {
		report.Components = append(report.Components, ComponentScore{
			Name:     name,
			Score:    scores[name],
			Weight:   weights[name],
			Weighted: float64(scores[name]) * weights[name],
		})
	}

	got := svc.suggestions(context.Background(), "text", report)
	// Weighted contributions: experience 3.0, formatting 6.0,
	// completeness 12.5, content 18.0; keywords is above threshold.
	want := []string{
		ruleSuggestions[ComponentExperience],
		ruleSuggestions[ComponentFormatting],
		ruleSuggestions[ComponentCompleteness],
		ruleSuggestions[ComponentContentQuality],
	}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestions[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
