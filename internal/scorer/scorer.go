// Package scorer computes a weighted multi-factor resume score. The factors
// are deterministic text heuristics except where noted; model-assisted parts
// always degrade to their deterministic halves, so scoring succeeds even
// with the model host down.
package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"resume-insight/internal/cache"
	"resume-insight/internal/fingerprint"
	"resume-insight/internal/llm"
	"resume-insight/internal/llm/parse"
	"resume-insight/internal/shared/metrics"
	"resume-insight/internal/shared/telemetry"
)

// ErrInvalidInput means the resume text is missing.
var ErrInvalidInput = errors.New("resume text is required")

var errUnparsable = errors.New("model response had no extractable structure")

// promptExcerptLen bounds how much resume text is embedded in scoring
// prompts.
const promptExcerptLen = 2000

// suggestionThreshold is the component score below which an improvement
// suggestion is emitted.
const suggestionThreshold = 75

// Recorder persists score reports. A nil Recorder skips persistence.
type Recorder interface {
	SaveScore(ctx context.Context, userID string, report ScoreReport) error
}

// Service scores resumes. Model-assisted sub-assessments are cached under
// their component name so repeat scoring of an unchanged resume is free.
type Service struct {
	LLM      llm.Client
	Cache    *cache.Store
	Recorder Recorder
	Config   llm.GenerateConfig
}

var sectionPatterns = map[string]*regexp.Regexp{
	"contact":    regexp.MustCompile(`contact|phone|email|linkedin|address`),
	"summary":    regexp.MustCompile(`professional summary|summary|objective|profile`),
	"experience": regexp.MustCompile(`work experience|experience|professional experience|employment`),
	"education":  regexp.MustCompile(`education|degree|university|college|school`),
	"skills":     regexp.MustCompile(`skills|technical skills|competencies|expertise|proficiencies`),
}

var essentialSections = []string{"contact", "summary", "experience", "education", "skills"}

var (
	quantifiablePattern = regexp.MustCompile(`\b(?:\d+%|\$\d+[KM]?|\d+\+?(?:\s*(?:years?|months?|weeks?|days?|hours?))?)\b`)
	bulletPattern       = regexp.MustCompile(`[-•*]`)
	sectionBreakPattern = regexp.MustCompile(`\n\n+`)
	specialCharPattern  = regexp.MustCompile(`[^a-zA-Z0-9\s\n\-•*.()\[\]]`)
	yearsPattern        = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?)`)
	verbPattern         = buildVerbPattern()
)

func buildVerbPattern() *regexp.Regexp {
	var all []string
	for _, verbs := range actionVerbs {
		all = append(all, verbs...)
	}
	sort.Strings(all)
	return regexp.MustCompile(`\b(` + strings.Join(all, "|") + `)\b`)
}

// Score computes the full weighted report for one resume.
func (s *Service) Score(ctx context.Context, userID, resumeText string, targetKeywords []string) (ScoreReport, error) {
	if strings.TrimSpace(resumeText) == "" {
		return ScoreReport{}, ErrInvalidInput
	}

	completeness, completenessDetails := completenessScore(resumeText)
	contentQuality, contentDetails, contentDegraded := s.contentQualityScore(ctx, resumeText)
	formatting, formattingDetails := formattingScore(resumeText)
	keywords, keywordDetails := s.keywordRelevanceScore(ctx, resumeText, targetKeywords)
	experience, experienceDetails := s.experienceScore(ctx, resumeText)

	raw := map[string]int{
		ComponentCompleteness:   completeness,
		ComponentContentQuality: contentQuality,
		ComponentFormatting:     formatting,
		ComponentKeywords:       keywords,
		ComponentExperience:     experience,
	}
	details := map[string]map[string]any{
		ComponentCompleteness:   completenessDetails,
		ComponentContentQuality: contentDetails,
		ComponentFormatting:     formattingDetails,
		ComponentKeywords:       keywordDetails,
		ComponentExperience:     experienceDetails,
	}

	// Keyword and experience fallbacks stay silent: their deterministic
	// halves carry the component. Only content quality marks the report
	// degraded since the model holds 60% of its weight.
	var sum float64
	report := ScoreReport{
		Degraded:  contentDegraded,
		CreatedAt: time.Now().UTC(),
	}
	for _, name := range componentOrder {
		weighted := float64(raw[name]) * weights[name]
		sum += weighted
		report.Components = append(report.Components, ComponentScore{
			Name:     name,
			Score:    raw[name],
			Weight:   weights[name],
			Weighted: weighted,
			Details:  details[name],
		})
	}
	report.Overall = clampInt(int(math.Round(sum)), 0, 100)
	report.Classification = Classify(report.Overall)
	report.Suggestions = s.suggestions(ctx, resumeText, report)

	metrics.IncScoreComputed()
	telemetry.Info("score.computed", map[string]any{
		"overall":        report.Overall,
		"classification": report.Classification,
		"degraded":       report.Degraded,
	})

	if s.Recorder != nil && userID != "" {
		if err := s.Recorder.SaveScore(ctx, userID, report); err != nil {
			telemetry.Error("score.persist_failed", map[string]any{"error": err.Error()})
		}
	}
	return report, nil
}

// completenessScore checks for the five canonical sections.
func completenessScore(resumeText string) (int, map[string]any) {
	lower := strings.ToLower(resumeText)
	var found, missing []string
	for _, section := range essentialSections {
		if sectionPatterns[section].MatchString(lower) {
			found = append(found, section)
		} else {
			missing = append(missing, section)
		}
	}
	score := len(found) * 100 / len(essentialSections)
	return score, map[string]any{
		"found_sections":   found,
		"missing_sections": missing,
	}
}

// contentQualityScore blends a model assessment (60%) with deterministic
// action-verb and metric counting (40%). With the model unavailable the
// deterministic half carries the whole component and degraded is true.
func (s *Service) contentQualityScore(ctx context.Context, resumeText string) (int, map[string]any, bool) {
	lower := strings.ToLower(resumeText)

	verbTally := map[string]int{}
	for _, m := range verbPattern.FindAllString(lower, -1) {
		verbTally[m]++
	}
	verbCount := 0
	var foundVerbs []string
	for verb, n := range verbTally {
		verbCount += n
		foundVerbs = append(foundVerbs, fmt.Sprintf("%s (%dx)", verb, n))
	}
	sort.Strings(foundVerbs)

	metricCount := len(quantifiablePattern.FindAllString(resumeText, -1))

	verbScore := minInt(100, verbCount*15)
	metricScore := minInt(100, metricCount*10)
	manualScore := float64(verbScore+metricScore) / 2

	details := map[string]any{
		"action_verbs_found":        foundVerbs,
		"action_verb_count":         verbCount,
		"quantifiable_achievements": metricCount,
	}

	data, err := s.llmJSON(ctx, ComponentContentQuality, resumeText, contentQualityPrompt(excerpt(resumeText)))
	if err != nil {
		details["llm_assessment"] = "model unavailable, deterministic metrics only"
		return int(manualScore), details, true
	}

	llmScore := float64(numField(data, 50, "score"))
	details["llm_assessment"] = strField(data, "explanation")
	details["strengths"] = data["strengths"]
	details["improvements"] = data["improvements"]

	return int(llmScore*0.6 + manualScore*0.4), details, false
}

// formattingScore averages four deterministic checks: length band,
// structural consistency, section clarity, special-character ratio.
func formattingScore(resumeText string) (int, map[string]any) {
	wordCount := len(strings.Fields(resumeText))
	checks := map[string]any{}

	var lengthScore int
	switch {
	case wordCount >= 400 && wordCount <= 2000:
		lengthScore = 100
		checks["length"] = "appropriate (1-2 pages)"
	case wordCount >= 200 && wordCount < 400:
		lengthScore = 70
		checks["length"] = "too brief"
	case wordCount > 2000 && wordCount <= 3000:
		lengthScore = 60
		checks["length"] = "too lengthy"
	default:
		lengthScore = 40
		checks["length"] = "far from ideal length"
	}

	bulletCount := len(bulletPattern.FindAllString(resumeText, -1))
	newlineCount := strings.Count(resumeText, "\n")
	var consistencyScore int
	switch {
	case bulletCount > 0 && newlineCount > 20:
		consistencyScore = 90
		checks["consistency"] = "well-structured with bullets"
	case bulletCount > 0 || newlineCount > 15:
		consistencyScore = 75
		checks["consistency"] = "generally consistent"
	default:
		consistencyScore = 50
		checks["consistency"] = "could improve structure"
	}

	sectionBreaks := len(sectionBreakPattern.FindAllString(resumeText, -1))
	var clarityScore int
	switch {
	case sectionBreaks >= 4:
		clarityScore = 95
		checks["clarity"] = "clear section separation"
	case sectionBreaks >= 2:
		clarityScore = 80
		checks["clarity"] = "good section organization"
	default:
		clarityScore = 50
		checks["clarity"] = "improve section spacing"
	}

	totalRunes := utf8.RuneCountInString(resumeText)
	if totalRunes == 0 {
		totalRunes = 1
	}
	specialRatio := float64(len(specialCharPattern.FindAllString(resumeText, -1))) / float64(totalRunes)
	var specialScore int
	switch {
	case specialRatio < 0.05:
		specialScore = 95
		checks["special_chars"] = "clean formatting"
	case specialRatio < 0.15:
		specialScore = 80
		checks["special_chars"] = "acceptable"
	default:
		specialScore = 50
		checks["special_chars"] = "too many special characters"
	}

	score := (lengthScore + consistencyScore + clarityScore + specialScore) / 4
	return score, map[string]any{
		"word_count":        wordCount,
		"formatting_checks": checks,
	}
}

// keywordRelevanceScore scores found-vs-missing keyword overlap. With
// caller-supplied keywords the check is a pure substring scan; without
// them the model proposes found and missing lists, falling back to the
// built-in keyword list when unreachable.
func (s *Service) keywordRelevanceScore(ctx context.Context, resumeText string, targetKeywords []string) (int, map[string]any) {
	var found, missing []string

	if len(targetKeywords) > 0 {
		lower := strings.ToLower(resumeText)
		for _, kw := range targetKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = append(found, kw)
			} else {
				missing = append(missing, kw)
			}
		}
	} else {
		data, err := s.llmJSON(ctx, ComponentKeywords, resumeText, keywordScanPrompt(excerpt(resumeText)))
		if err != nil {
			found = scanDefaultKeywords(resumeText)
		} else {
			found = strList(data, "found_keywords")
			missing = strList(data, "missing_keywords")
			if len(found) == 0 && len(missing) == 0 {
				found = scanDefaultKeywords(resumeText)
			}
		}
	}

	var score int
	if len(found) == 0 {
		score = 40
	} else {
		score = len(found) * 100 / (len(found) + len(missing))
	}
	if len(found) >= 15 {
		score = minInt(100, score+15)
	}

	return score, map[string]any{
		"found_keywords":   found,
		"missing_keywords": missing,
		"keyword_count":    len(found),
	}
}

func scanDefaultKeywords(resumeText string) []string {
	lower := strings.ToLower(resumeText)
	var found []string
	for _, kw := range defaultTechKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// experienceScore weighs stated years (40%), progression level (30%), and a
// model coherence check (30%). Unavailable model means neutral progression
// and coherence.
func (s *Service) experienceScore(ctx context.Context, resumeText string) (int, map[string]any) {
	years := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(resumeText, -1) {
		if n := atoiSafe(m[1]); n > years {
			years = n
		}
	}

	progression := "unclear"
	coherence := 50

	data, err := s.llmJSON(ctx, ComponentExperience, resumeText, experiencePrompt(excerpt(resumeText)))
	if err == nil {
		if detected := numField(data, 0, "years_detected"); detected > 0 {
			years = detected
		}
		if p := strField(data, "progression"); p != "" {
			progression = p
		}
		coherence = clampInt(numField(data, 50, "coherence"), 0, 100)
	}

	progressionScores := map[string]int{"entry": 60, "mid": 80, "senior": 95, "unclear": 50}
	progressionScore, ok := progressionScores[progression]
	if !ok {
		progressionScore = 50
	}
	yearsScore := minInt(100, years*10)

	score := int(float64(yearsScore)*0.4 + float64(progressionScore)*0.3 + float64(coherence)*0.3)
	return score, map[string]any{
		"years_of_experience": years,
		"career_progression":  progression,
		"coherence":           coherence,
	}
}

var ruleSuggestions = map[string]string{
	ComponentCompleteness:   "Ensure all essential sections are present (contact, summary, experience, education, skills)",
	ComponentContentQuality: "Use more action verbs and add quantifiable achievements (e.g., 'increased sales by 25%')",
	ComponentFormatting:     "Use consistent bullet points, maintain proper spacing between sections, and keep to 1-2 pages",
	ComponentKeywords:       "Include more industry-relevant keywords and technical skills that match your target role",
	ComponentExperience:     "Highlight career progression and demonstrate growth in your roles; clarify years of experience",
}

// suggestions emits rule text for weak components, lowest weighted
// contribution first, then asks the model to rephrase the top gaps. Rule
// text survives as-is when the model call fails.
func (s *Service) suggestions(ctx context.Context, resumeText string, report ScoreReport) []string {
	weak := make([]ComponentScore, 0, len(report.Components))
	for _, comp := range report.Components {
		if comp.Score < suggestionThreshold {
			weak = append(weak, comp)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Weighted < weak[j].Weighted })

	if len(weak) == 0 {
		return []string{"Your resume is performing well! Consider fine-tuning the weaker components for a perfect score."}
	}

	out := make([]string, 0, len(weak))
	names := make([]string, 0, len(weak))
	for _, comp := range weak {
		out = append(out, ruleSuggestions[comp.Name])
		names = append(names, comp.Name)
	}

	if report.Degraded {
		return out
	}
	phrased, err := s.phraseSuggestions(ctx, resumeText, names, report)
	if err != nil {
		return out
	}
	for i := range out {
		if i < len(phrased) && strings.TrimSpace(phrased[i]) != "" {
			out[i] = phrased[i]
		}
	}
	return out
}

// phraseSuggestions asks the model to reword the top three gap suggestions.
// Cached with the component scores in the key so a rescored resume with
// different weak spots is re-phrased.
func (s *Service) phraseSuggestions(ctx context.Context, resumeText string, names []string, report ScoreReport) ([]string, error) {
	if len(names) > 3 {
		names = names[:3]
	}
	scoreSig := make([]string, 0, len(report.Components))
	for _, comp := range report.Components {
		scoreSig = append(scoreSig, fmt.Sprintf("%s=%d", comp.Name, comp.Score))
	}

	key := cache.Key{
		Fingerprint: fingerprint.Digest(resumeText),
		Kind:        "suggestions",
		Params:      fingerprint.ParamsDigest(scoreSig...),
	}
	entry, _, err := s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		raw, err := s.LLM.Generate(ctx, suggestionPrompt(excerpt(resumeText), names), s.Config)
		if err != nil {
			return nil, err
		}
		p := parse.Parse(raw.Text)
		if p.Failed() {
			return nil, errUnparsable
		}
		return json.Marshal(p.Data)
	})
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(entry.Payload, &data); err != nil {
		return nil, err
	}
	phrased := strList(data, "suggestions")
	if phrased == nil {
		phrased = strList(data, "items")
	}
	return phrased, nil
}

// llmJSON runs one cached model call and returns the parsed payload. Every
// caller treats an error as a signal to degrade, never to fail the score.
func (s *Service) llmJSON(ctx context.Context, kind, resumeText, prompt string) (map[string]any, error) {
	key := cache.Key{Fingerprint: fingerprint.Digest(resumeText), Kind: kind}
	entry, _, err := s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		raw, err := s.LLM.Generate(ctx, prompt, s.Config)
		if err != nil {
			return nil, err
		}
		p := parse.Parse(raw.Text)
		if p.Failed() {
			return nil, errUnparsable
		}
		return json.Marshal(p.Data)
	})
	if err != nil {
		telemetry.Warn("score.llm_fallback", map[string]any{"component": kind, "error": err.Error()})
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(entry.Payload, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func excerpt(text string) string {
	if utf8.RuneCountInString(text) <= promptExcerptLen {
		return text
	}
	return string([]rune(text)[:promptExcerptLen])
}

func strField(data map[string]any, field string) string {
	s, _ := data[field].(string)
	return s
}

func strList(data map[string]any, field string) []string {
	raw, ok := data[field].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func numField(data map[string]any, fallback int, field string) int {
	switch v := data[field].(type) {
	case float64:
		return int(v)
	case string:
		if n := atoiSafe(strings.TrimSpace(v)); n != 0 {
			return n
		}
	}
	return fallback
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
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
