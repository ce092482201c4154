package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"resume-insight/internal/cache"
	"resume-insight/internal/fingerprint"
	"resume-insight/internal/llm"
	"resume-insight/internal/llm/parse"
	"resume-insight/internal/shared/metrics"
	"resume-insight/internal/shared/telemetry"
)

// Confidence assigned to findings depending on which parser path produced
// them.
const (
	confidenceStrict  = 90
	confidencePartial = 50
)

// Recorder persists analysis results. The zero value of Service skips
// persistence entirely.
type Recorder interface {
	SaveAnalysis(ctx context.Context, userID string, res Result) error
}

// Service orchestrates resume analyses: validate, consult the cache,
// invoke the model at most once per key, parse, persist.
type Service struct {
	LLM      llm.Client
	Cache    *cache.Store
	Recorder Recorder
	Config   llm.GenerateConfig
}

// Analyze runs the protocol shared by every analysis kind. Results are
// cached under {fingerprint, kind, params}; a failed call never populates
// the cache.
func (s *Service) Analyze(ctx context.Context, userID string, req Request) (Result, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return Result{}, ErrInvalidInput
	}
	if !ValidKind(req.Kind) {
		return Result{}, fmt.Errorf("%w: unknown analysis kind %q", ErrInvalidInput, req.Kind)
	}
	if req.Kind == KindJobMatch && strings.TrimSpace(req.JobDescription) == "" {
		return Result{}, fmt.Errorf("%w: job description is required for job matching", ErrInvalidInput)
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	var res Result
	var err error
	if req.Kind == KindSkillsGap {
		res, err = s.skillsGap(ctx, req)
	} else {
		res, err = s.runCached(ctx, string(req.Kind), req.ResumeText, paramsFor(req), s.promptFor(req), func(p parse.Result) (Result, error) {
			return s.assemble(req.Kind, p)
		})
	}
	if err != nil {
		metrics.IncAnalysisFailed()
		return Result{}, err
	}
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Milliseconds()))

	if s.Recorder != nil && userID != "" {
		if perr := s.Recorder.SaveAnalysis(ctx, userID, res); perr != nil {
			telemetry.Error("analysis.persist_failed", map[string]any{
				"kind": string(req.Kind), "error": perr.Error(),
			})
		}
	}
	return res, nil
}

// Strengths, Weaknesses, Skills, Improvements, MatchJob, and SkillsGap are
// convenience wrappers over Analyze.

func (s *Service) Strengths(ctx context.Context, userID, resumeText string) (Result, error) {
	return s.Analyze(ctx, userID, Request{Kind: KindStrengths, ResumeText: resumeText})
}

func (s *Service) Weaknesses(ctx context.Context, userID, resumeText string) (Result, error) {
	return s.Analyze(ctx, userID, Request{Kind: KindWeaknesses, ResumeText: resumeText})
}

func (s *Service) Skills(ctx context.Context, userID, resumeText string) (Result, error) {
	return s.Analyze(ctx, userID, Request{Kind: KindSkills, ResumeText: resumeText})
}

func (s *Service) Improvements(ctx context.Context, userID, resumeText string) (Result, error) {
	return s.Analyze(ctx, userID, Request{Kind: KindImprovements, ResumeText: resumeText})
}

func (s *Service) MatchJob(ctx context.Context, userID, resumeText, jobDescription string) (Result, error) {
	return s.Analyze(ctx, userID, Request{Kind: KindJobMatch, ResumeText: resumeText, JobDescription: jobDescription})
}

func (s *Service) SkillsGap(ctx context.Context, userID string, req Request) (Result, error) {
	req.Kind = KindSkillsGap
	return s.Analyze(ctx, userID, req)
}

// ComprehensiveAnalysis runs the four text-only analyses. A failing section
// does not abort the others; its error message is reported alongside the
// sections that succeeded.
func (s *Service) ComprehensiveAnalysis(ctx context.Context, userID, resumeText string) (Comprehensive, error) {
	if strings.TrimSpace(resumeText) == "" {
		return Comprehensive{}, ErrInvalidInput
	}

	out := Comprehensive{Errors: map[Kind]string{}}
	for _, kind := range []Kind{KindStrengths, KindWeaknesses, KindSkills, KindImprovements} {
		res, err := s.Analyze(ctx, userID, Request{Kind: kind, ResumeText: resumeText})
		if err != nil {
			out.Errors[kind] = err.Error()
			continue
		}
		r := res
		switch kind {
		case KindStrengths:
			out.Strengths = &r
		case KindWeaknesses:
			out.Weaknesses = &r
		case KindSkills:
			out.Skills = &r
		case KindImprovements:
			out.Improvements = &r
		}
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out, nil
}

// Probe reports model-host connectivity without performing an analysis.
func (s *Service) Probe(ctx context.Context) llm.ProbeResult {
	return s.LLM.Probe(ctx)
}

func (s *Service) promptFor(req Request) string {
	switch req.Kind {
	case KindStrengths:
		return strengthsPrompt(req.ResumeText)
	case KindWeaknesses:
		return weaknessesPrompt(req.ResumeText)
	case KindSkills:
		return skillsPrompt(req.ResumeText)
	case KindImprovements:
		return improvementsPrompt(req.ResumeText)
	case KindJobMatch:
		return jobMatchPrompt(req.ResumeText, req.JobDescription)
	}
	return ""
}

// paramsFor returns the request inputs that vary a kind's output beyond the
// resume text itself. They feed the cache key's params digest; the resume
// text stays out so reformatted copies of the same resume share entries.
func paramsFor(req Request) []string {
	if req.Kind == KindJobMatch {
		return []string{req.JobDescription}
	}
	return nil
}

// runCached executes one model call through the cache: at most one caller
// computes per key, everyone else observes that caller's result.
func (s *Service) runCached(ctx context.Context, kind, keyText string, params []string, prompt string, build func(parse.Result) (Result, error)) (Result, error) {
	key := cache.Key{
		Fingerprint: fingerprint.Digest(keyText),
		Kind:        kind,
		Params:      fingerprint.ParamsDigest(params...),
	}

	entry, cached, err := s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		raw, err := s.LLM.Generate(ctx, prompt, s.Config)
		if err != nil {
			return nil, err
		}
		parsed := parse.Parse(raw.Text)
		if parsed.Failed() {
			telemetry.Warn("analysis.parse_failed", map[string]any{
				"kind": kind, "raw_len": len(parsed.Raw),
			})
			return nil, ErrParseFailure
		}
		res, err := build(parsed)
		if err != nil {
			return nil, err
		}
		res.CreatedAt = time.Now().UTC()
		return json.Marshal(res)
	})
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			telemetry.Error("analysis.llm_unavailable", map[string]any{"kind": kind})
		}
		return Result{}, err
	}

	var res Result
	if err := json.Unmarshal(entry.Payload, &res); err != nil {
		return Result{}, fmt.Errorf("decode cached analysis: %w", err)
	}
	res.Cached = cached
	return res, nil
}

// assemble turns a parsed payload into a Result for the simple (single
// model call) kinds.
func (s *Service) assemble(kind Kind, p parse.Result) (Result, error) {
	res := Result{Kind: kind, Data: p.Data, Partial: p.Partial}
	conf := confidenceStrict
	if p.Partial {
		conf = confidencePartial
	}

	switch kind {
	case KindStrengths:
		res.Findings = listFindings(p.Data, "strengths", "strength", "high", conf)
	case KindWeaknesses:
		res.Findings = listFindings(p.Data, "weaknesses", "weakness", "high", conf)
	case KindImprovements:
		res.Findings = listFindings(p.Data, "suggestions", "improvement", "medium", conf)
	case KindSkills:
		res.Findings = append(
			listFindings(p.Data, "technical_skills", "technical_skill", "medium", conf),
			listFindings(p.Data, "soft_skills", "soft_skill", "low", conf)...)
	case KindJobMatch:
		pct, found := intField(p.Data, "match_score", "match_percentage")
		pct = clampInt(pct, 0, 100)
		res.MatchPercent = &pct
		res.LowConfidence = p.Partial || !found
		res.Findings = append(res.Findings,
			listFindings(p.Data, "missing_skills", "missing_skill", "high", conf)...)
		res.Findings = append(res.Findings,
			listFindings(p.Data, "recommendations", "recommendation", "medium", conf)...)
	}

	// Heuristic fallback often lands everything under "items".
	if len(res.Findings) == 0 && p.Partial {
		res.Findings = listFindings(p.Data, "items", string(kind), "low", conf)
	}
	return res, nil
}

// skillsGap composes two cached sub-calls and joins them with a
// deterministic set diff.
func (s *Service) skillsGap(ctx context.Context, req Request) (Result, error) {
	skillsRes, err := s.runCached(ctx, string(KindSkills), req.ResumeText, nil, skillsPrompt(req.ResumeText), func(p parse.Result) (Result, error) {
		return s.assemble(KindSkills, p)
	})
	if err != nil {
		return Result{}, fmt.Errorf("extract skills: %w", err)
	}

	industryPrompt := industrySkillsPrompt(req.TargetRole, req.ExperienceLevel)
	industryKey := req.TargetRole + "|" + req.ExperienceLevel
	industryRes, err := s.runCached(ctx, "industry_skills", industryKey, nil, industryPrompt, func(p parse.Result) (Result, error) {
		return Result{Kind: "industry_skills", Data: p.Data, Partial: p.Partial}, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("fetch industry skills: %w", err)
	}

	extracted := skillSet(
		stringList(skillsRes.Data, "technical_skills"),
		stringList(skillsRes.Data, "soft_skills"),
		stringList(skillsRes.Data, "items"))
	mustHave := stringList(industryRes.Data, "must_have")
	niceToHave := stringList(industryRes.Data, "nice_to_have")

	gap := buildGapReport(req, extracted, mustHave, niceToHave)

	res := Result{
		Kind:      KindSkillsGap,
		Gap:       &gap,
		Partial:   skillsRes.Partial || industryRes.Partial,
		CreatedAt: time.Now().UTC(),
		Cached:    skillsRes.Cached && industryRes.Cached,
	}
	conf := confidenceStrict
	if res.Partial {
		conf = confidencePartial
	}
	for _, skill := range gap.MissingMustHave {
		res.Findings = append(res.Findings, Finding{
			Category:       "missing_skill",
			Importance:     "must_have",
			Confidence:     conf,
			Text:           skill,
			Recommendation: "Learn " + skill + " before applying",
		})
	}
	for _, skill := range gap.MissingNiceToHave {
		res.Findings = append(res.Findings, Finding{
			Category:   "missing_skill",
			Importance: "nice_to_have",
			Confidence: conf,
			Text:       skill,
		})
	}
	return res, nil
}

// buildGapReport diffs expected skills against extracted ones. Skill names
// are matched case-insensitively after trimming.
func buildGapReport(req Request, extracted map[string]bool, mustHave, niceToHave []string) GapReport {
	gap := GapReport{
		TargetRole:      req.TargetRole,
		ExperienceLevel: req.ExperienceLevel,
	}
	for name := range extracted {
		gap.ExtractedSkills = append(gap.ExtractedSkills, name)
	}
	sort.Strings(gap.ExtractedSkills)

	for _, skill := range mustHave {
		if extracted[normalizeSkill(skill)] {
			gap.MatchedMustHave = append(gap.MatchedMustHave, skill)
		} else {
			gap.MissingMustHave = append(gap.MissingMustHave, skill)
		}
	}
	for _, skill := range niceToHave {
		if !extracted[normalizeSkill(skill)] {
			gap.MissingNiceToHave = append(gap.MissingNiceToHave, skill)
		}
	}

	if len(mustHave) > 0 {
		gap.Readiness = clampInt(len(gap.MatchedMustHave)*100/len(mustHave), 0, 100)
	}

	// Must-have gaps first, ranked by severity weight (heaviest first, ties
	// alphabetical), then nice-to-have gaps alphabetically.
	ranked := append([]string(nil), gap.MissingMustHave...)
	sort.SliceStable(ranked, func(i, j int) bool {
		wi, wj := severityWeight(req.SeverityWeights, ranked[i]), severityWeight(req.SeverityWeights, ranked[j])
		if wi != wj {
			return wi > wj
		}
		return ranked[i] < ranked[j]
	})
	nice := append([]string(nil), gap.MissingNiceToHave...)
	sort.Strings(nice)
	gap.Recommendations = append(ranked, nice...)
	return gap
}

func severityWeight(weights map[string]float64, skill string) float64 {
	if w, ok := weights[normalizeSkill(skill)]; ok {
		return w
	}
	if w, ok := weights[skill]; ok {
		return w
	}
	return 1
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func skillSet(lists ...[]string) map[string]bool {
	set := map[string]bool{}
	for _, list := range lists {
		for _, s := range list {
			if n := normalizeSkill(s); n != "" {
				set[n] = true
			}
		}
	}
	return set
}

func listFindings(data map[string]any, field, category, importance string, confidence int) []Finding {
	var out []Finding
	for _, item := range stringList(data, field) {
		out = append(out, Finding{
			Category:   category,
			Importance: importance,
			Confidence: confidence,
			Text:       item,
		})
	}
	return out
}

func stringList(data map[string]any, field string) []string {
	raw, ok := data[field]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		// A single string where a list was expected still counts.
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// intField reads the first present numeric field, accepting JSON numbers
// and numeric strings.
func intField(data map[string]any, fields ...string) (int, bool) {
	for _, field := range fields {
		raw, ok := data[field]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int(v), true
		case string:
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
