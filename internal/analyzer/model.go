package analyzer

import "time"

// Kind identifies one analysis flavor.
type Kind string

const (
	KindStrengths    Kind = "strengths"
	KindWeaknesses   Kind = "weaknesses"
	KindSkills       Kind = "skills"
	KindImprovements Kind = "improvements"
	KindJobMatch     Kind = "job_match"
	KindSkillsGap    Kind = "skills_gap"
)

// ValidKind reports whether k names a supported analysis.
func ValidKind(k Kind) bool {
	switch k {
	case KindStrengths, KindWeaknesses, KindSkills, KindImprovements, KindJobMatch, KindSkillsGap:
		return true
	}
	return false
}

// Request carries the inputs for a single analysis call. Constructed per
// call and never mutated.
type Request struct {
	Kind            Kind
	ResumeText      string
	TargetRole      string
	JobDescription  string
	ExperienceLevel string
	// SeverityWeights optionally ranks must-have skill gaps; unknown
	// skills fall back to weight 1.
	SeverityWeights map[string]float64
}

// Finding is one structured observation extracted from the model output.
type Finding struct {
	Category       string `json:"category"`
	Importance     string `json:"importance"`
	Confidence     int    `json:"confidence"`
	Text           string `json:"text"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Result is the outcome of one analysis. Data carries the model's structured
// payload as returned; Findings is the normalized view. Cached and CachedAt
// are set at read time and excluded from the stored payload.
type Result struct {
	Kind     Kind           `json:"kind"`
	Findings []Finding      `json:"findings"`
	Data     map[string]any `json:"data,omitempty"`

	// Partial marks results recovered through heuristic extraction rather
	// than strict decoding.
	Partial bool `json:"partial,omitempty"`

	// MatchPercent is set for job_match only, clamped to [0,100].
	MatchPercent *int `json:"match_percent,omitempty"`
	// LowConfidence marks a job-match percentage taken from a partial parse
	// or absent from the model output.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// Gap is set for skills_gap only.
	Gap *GapReport `json:"gap,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Cached    bool      `json:"-"`
}

// GapReport is the deterministic half of a skills-gap analysis: the diff
// between industry-expected skills and those extracted from the resume.
type GapReport struct {
	TargetRole        string   `json:"target_role"`
	ExperienceLevel   string   `json:"experience_level"`
	ExtractedSkills   []string `json:"extracted_skills"`
	MatchedMustHave   []string `json:"matched_must_have"`
	MissingMustHave   []string `json:"missing_must_have"`
	MissingNiceToHave []string `json:"missing_nice_to_have"`
	// Readiness is matched must-have skills over total must-have skills,
	// as a percentage clamped to [0,100].
	Readiness       int      `json:"readiness_score"`
	Recommendations []string `json:"recommendations"`
}

// Comprehensive bundles the four text-only analyses. Sections that failed
// carry their error message in Errors instead of a result.
type Comprehensive struct {
	Strengths    *Result         `json:"strengths,omitempty"`
	Weaknesses   *Result         `json:"weaknesses,omitempty"`
	Skills       *Result         `json:"skills,omitempty"`
	Improvements *Result         `json:"improvements,omitempty"`
	Errors       map[Kind]string `json:"errors,omitempty"`
}
