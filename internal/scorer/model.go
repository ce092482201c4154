package scorer

import "time"

// Component names, also used as cache kinds for the LLM-assisted parts.
const (
	ComponentCompleteness   = "completeness"
	ComponentContentQuality = "content_quality"
	ComponentFormatting     = "formatting"
	ComponentKeywords       = "keyword_relevance"
	ComponentExperience     = "experience"
)

// Fixed component weights. They sum to 1 so the overall score stays in
// [0,100] without renormalization.
var weights = map[string]float64{
	ComponentCompleteness:   0.25,
	ComponentContentQuality: 0.30,
	ComponentFormatting:     0.15,
	ComponentKeywords:       0.20,
	ComponentExperience:     0.10,
}

// componentOrder fixes report ordering regardless of map iteration.
var componentOrder = []string{
	ComponentCompleteness,
	ComponentContentQuality,
	ComponentFormatting,
	ComponentKeywords,
	ComponentExperience,
}

// Classification labels. Boundaries are upper-bound inclusive: >=90, 75-89,
// 60-74, <60.
const (
	ClassExcellent        = "Excellent"
	ClassGood             = "Good"
	ClassAverage          = "Average"
	ClassNeedsImprovement = "Needs Improvement"
)

// ComponentScore is one factor's contribution to the overall score.
// Weighted is the unrounded raw contribution; the overall score is the
// rounded sum of these, so the parts always account for the whole.
type ComponentScore struct {
	Name     string         `json:"name"`
	Score    int            `json:"score"`
	Weight   float64        `json:"weight"`
	Weighted float64        `json:"weighted_score"`
	Details  map[string]any `json:"details,omitempty"`
}

// ScoreReport is the full outcome of scoring one resume.
type ScoreReport struct {
	Overall        int              `json:"overall_score"`
	Classification string           `json:"classification"`
	Components     []ComponentScore `json:"component_scores"`
	Suggestions    []string         `json:"improvement_suggestions"`

	// Degraded means the model was unreachable, so Content Quality fell
	// back to its deterministic half and suggestions carry rule text only.
	// Confidence in the overall number is correspondingly lower.
	Degraded bool `json:"degraded,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Classify maps a score to its label.
func Classify(score int) string {
	switch {
	case score >= 90:
		return ClassExcellent
	case score >= 75:
		return ClassGood
	case score >= 60:
		return ClassAverage
	default:
		return ClassNeedsImprovement
	}
}
