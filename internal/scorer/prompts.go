package scorer

import (
	"fmt"
	"strings"
)

func contentQualityPrompt(resumeExcerpt string) string {
	return fmt.Sprintf(`Analyze the following resume section for content quality. Evaluate on a scale of 0-100 based on:
1. Presence of action verbs (strongly preferred)
2. Quantifiable achievements and metrics
3. Relevance and impact of accomplishments
4. Clarity and specificity of achievements
5. Professional tone and language

Resume text:
%s

Provide:
1. A score from 0-100
2. Brief explanation (2-3 sentences)
3. Top 3 strengths observed
4. Top 3 areas for improvement

Format as JSON:
{"score": <number>, "explanation": "<text>", "strengths": ["<str1>", "<str2>", "<str3>"], "improvements": ["<imp1>", "<imp2>", "<imp3>"]}`, resumeExcerpt)
}

func keywordScanPrompt(resumeExcerpt string) string {
	return fmt.Sprintf(`Analyze this resume and identify the top technical and professional keywords present.
Also suggest what keywords should be present based on the job context evident in the resume.

Resume:
%s

Provide response as JSON:
{"found_keywords": ["<kw1>", "<kw2>", ...], "missing_keywords": ["<mkw1>", "<mkw2>", ...], "industry_keywords": ["<ikw1>", "<ikw2>", ...]}`, resumeExcerpt)
}

func experiencePrompt(resumeExcerpt string) string {
	return fmt.Sprintf(`Analyze the following resume for experience quality and progression.
Evaluate:
1. Total years of experience (if clear)
2. Career progression and growth (entry, mid, or senior level?)
3. Relevance of roles to a coherent career path
4. Depth vs breadth of experience

Resume:
%s

Provide response as JSON:
{"years_detected": <number or null>, "progression": "<entry/mid/senior/unclear>", "coherence": <0-100>, "depth": <0-100>, "explanation": "<brief>"}`, resumeExcerpt)
}

func suggestionPrompt(resumeExcerpt string, weakComponents []string) string {
	return fmt.Sprintf(`You are an expert resume writer. The resume below scored weakest on these areas: %s.
Write one short, specific, actionable improvement suggestion per area, in the same order.

Resume:
%s

Provide response as JSON:
{"suggestions": ["<s1>", "<s2>", ...]}`, strings.Join(weakComponents, ", "), resumeExcerpt)
}
