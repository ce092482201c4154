package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"resume-insight/internal/cache"
	"resume-insight/internal/llm"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   int
	respond func(prompt string) (string, error)
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (llm.RawResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	text, err := f.respond(prompt)
	if err != nil {
		return llm.RawResponse{}, err
	}
	return llm.RawResponse{Text: text, Model: "test-model"}, nil
}

func (f *fakeClient) Probe(ctx context.Context) llm.ProbeResult {
	return llm.ProbeResult{Reachable: true, ModelAvailable: true}
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, respond func(prompt string) (string, error)) (*Service, *fakeClient) {
	t.Helper()
	client := &fakeClient{respond: respond}
	store := cache.New(cache.Options{MemoryMaxEntries: 64, Dir: t.TempDir()})
	return &Service{LLM: client, Cache: store}, client
}

const sampleResume = "Jane Doe\nSenior Engineer with 8 years of Go and Python experience."

func TestAnalyzeStrengths(t *testing.T) {
	svc, client := newTestService(t, func(prompt string) (string, error) {
		return `{"strengths": ["Deep Go expertise", "Quantified impact"]}`, nil
	})

	res, err := svc.Strengths(context.Background(), "", sampleResume)
	if err != nil {
		t.Fatalf("Strengths: %v", err)
	}
	if res.Cached {
		t.Error("first call should not be cache-derived")
	}
	if len(res.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(res.Findings))
	}
	if res.Findings[0].Text != "Deep Go expertise" || res.Findings[0].Category != "strength" {
		t.Errorf("finding[0] = %+v", res.Findings[0])
	}

	again, err := svc.Strengths(context.Background(), "", sampleResume)
	if err != nil {
		t.Fatalf("second Strengths: %v", err)
	}
	if !again.Cached {
		t.Error("second call should be cache-derived")
	}
	if client.callCount() != 1 {
		t.Errorf("model calls = %d, want 1", client.callCount())
	}
}

func TestAnalyzeNormalizedTextSharesCache(t *testing.T) {
	svc, client := newTestService(t, func(prompt string) (string, error) {
		return `{"strengths": ["x"]}`, nil
	})

	if _, err := svc.Strengths(context.Background(), "", sampleResume); err != nil {
		t.Fatal(err)
	}
	reformatted := "  " + strings.ReplaceAll(strings.ToUpper(sampleResume), " ", "   ") + "\n"
	res, err := svc.Strengths(context.Background(), "", reformatted)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cached {
		t.Error("reformatted copy of the same resume should hit the cache")
	}
	if client.callCount() != 1 {
		t.Errorf("model calls = %d, want 1", client.callCount())
	}
}

func TestAnalyzeInvalidInput(t *testing.T) {
	svc, client := newTestService(t, func(string) (string, error) { return "", nil })

	if _, err := svc.Strengths(context.Background(), "", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty text: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Analyze(context.Background(), "", Request{Kind: "nonsense", ResumeText: sampleResume}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad kind: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.MatchJob(context.Background(), "", sampleResume, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing job description: err = %v, want ErrInvalidInput", err)
	}
	if client.callCount() != 0 {
		t.Errorf("model was called %d times on invalid input", client.callCount())
	}
}

func TestJobMatchPercentageClamp(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		return `{"match_score": 250, "missing_skills": ["Kubernetes"]}`, nil
	})

	res, err := svc.MatchJob(context.Background(), "", sampleResume, "Platform engineer role")
	if err != nil {
		t.Fatalf("MatchJob: %v", err)
	}
	if res.MatchPercent == nil || *res.MatchPercent != 100 {
		t.Errorf("MatchPercent = %v, want 100", res.MatchPercent)
	}
	if res.LowConfidence {
		t.Error("strict parse with score present should not be low confidence")
	}
}

func TestJobMatchMissingScoreIsLowConfidence(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		return `{"matching_skills": ["Go"]}`, nil
	})

	res, err := svc.MatchJob(context.Background(), "", sampleResume, "Backend role")
	if err != nil {
		t.Fatalf("MatchJob: %v", err)
	}
	if res.MatchPercent == nil || *res.MatchPercent != 0 {
		t.Errorf("MatchPercent = %v, want 0", res.MatchPercent)
	}
	if !res.LowConfidence {
		t.Error("missing match_score should flag low confidence")
	}
}

func TestSkillsGapReadiness(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "hiring expectations") {
			return `{"must_have": ["Go", "Kubernetes", "PostgreSQL", "Terraform"], "nice_to_have": ["Rust"]}`, nil
		}
		return `{"technical_skills": ["go", "postgresql", "Python"], "soft_skills": ["Communication"]}`, nil
	})

	res, err := svc.SkillsGap(context.Background(), "", Request{
		ResumeText:      sampleResume,
		TargetRole:      "Platform Engineer",
		ExperienceLevel: "senior",
	})
	if err != nil {
		t.Fatalf("SkillsGap: %v", err)
	}
	gap := res.Gap
	if gap == nil {
		t.Fatal("Gap is nil")
	}
	if gap.Readiness != 50 {
		t.Errorf("Readiness = %d, want 50 (2 of 4 must-have)", gap.Readiness)
	}
	if len(gap.MatchedMustHave) != 2 {
		t.Errorf("MatchedMustHave = %v", gap.MatchedMustHave)
	}
	if len(gap.MissingMustHave) != 2 {
		t.Errorf("MissingMustHave = %v", gap.MissingMustHave)
	}
	// Must-have gaps come before nice-to-have gaps in the recommendations.
	if len(gap.Recommendations) != 3 || gap.Recommendations[2] != "Rust" {
		t.Errorf("Recommendations = %v", gap.Recommendations)
	}
}

func TestSkillsGapSeverityRanking(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "hiring expectations") {
			return `{"must_have": ["Kubernetes", "Terraform", "AWS"], "nice_to_have": []}`, nil
		}
		return `{"technical_skills": []}`, nil
	})

	res, err := svc.SkillsGap(context.Background(), "", Request{
		ResumeText: sampleResume,
		TargetRole: "SRE",
		SeverityWeights: map[string]float64{
			"terraform": 5, "aws": 3,
		},
	})
	if err != nil {
		t.Fatalf("SkillsGap: %v", err)
	}
	want := []string{"Terraform", "AWS", "Kubernetes"}
	got := res.Gap.Recommendations
	if len(got) != len(want) {
		t.Fatalf("Recommendations = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Recommendations[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFailedCallNeverCached(t *testing.T) {
	fail := true
	svc, client := newTestService(t, func(prompt string) (string, error) {
		if fail {
			return "", llm.ErrUnavailable
		}
		return `{"strengths": ["recovered"]}`, nil
	})

	if _, err := svc.Strengths(context.Background(), "", sampleResume); !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	fail = false
	res, err := svc.Strengths(context.Background(), "", sampleResume)
	if err != nil {
		t.Fatalf("after recovery: %v", err)
	}
	if res.Cached {
		t.Error("result after a failed attempt must be freshly computed")
	}
	if client.callCount() != 2 {
		t.Errorf("model calls = %d, want 2", client.callCount())
	}
}

func TestParseFailureSurfaced(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		return "I am unable to produce an analysis.", nil
	})

	if _, err := svc.Strengths(context.Background(), "", sampleResume); !errors.Is(err, ErrParseFailure) {
		t.Errorf("err = %v, want ErrParseFailure", err)
	}
}

func TestHeuristicFallbackFlagsPartial(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		return "Key strengths:\n- Solid Go background\n- Mentors juniors", nil
	})

	res, err := svc.Strengths(context.Background(), "", sampleResume)
	if err != nil {
		t.Fatalf("Strengths: %v", err)
	}
	if !res.Partial {
		t.Error("heuristic extraction should mark result partial")
	}
	if len(res.Findings) != 2 {
		t.Fatalf("findings = %+v", res.Findings)
	}
	if res.Findings[0].Confidence != confidencePartial {
		t.Errorf("confidence = %d, want %d", res.Findings[0].Confidence, confidencePartial)
	}
}

func TestComprehensiveCollectsSectionErrors(t *testing.T) {
	svc, _ := newTestService(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "improve the following resume") {
			return "", llm.ErrUnavailable
		}
		return `{"strengths": ["a"], "weaknesses": ["b"], "technical_skills": ["Go"]}`, nil
	})

	out, err := svc.ComprehensiveAnalysis(context.Background(), "", sampleResume)
	if err != nil {
		t.Fatalf("ComprehensiveAnalysis: %v", err)
	}
	if out.Strengths == nil || out.Weaknesses == nil || out.Skills == nil {
		t.Error("expected three successful sections")
	}
	if out.Improvements != nil {
		t.Error("improvements section should have failed")
	}
	if _, ok := out.Errors[KindImprovements]; !ok {
		t.Errorf("Errors = %v, want improvements entry", out.Errors)
	}
}
