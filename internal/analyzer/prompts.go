package analyzer

import "fmt"

// Prompt templates. Each asks for a single JSON object so the parser's
// strict path succeeds on well-behaved models; the trailing instruction
// reduces but does not eliminate surrounding prose.

func strengthsPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert career coach and resume analyzer.
Analyze the following resume and identify the candidate's key strengths and achievements.

Resume:
%s

Provide your analysis as a JSON object with the following structure:
{"strengths": ["strength1", "strength2", ...]}

Focus on:
- Technical skills and expertise
- Professional achievements and impact
- Leadership and soft skills
- Education and certifications
- Industry experience and domain knowledge

Return ONLY valid JSON, no additional text.`, resumeText)
}

func weaknessesPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert career coach and resume analyzer.
Analyze the following resume and identify potential weaknesses and areas for improvement.

Resume:
%s

Provide your analysis as a JSON object with the following structure:
{"weaknesses": ["weakness1", "weakness2", ...]}

Focus on:
- Missing critical skills for the industry
- Gaps in experience or education
- Areas lacking specific examples
- Outdated technologies or methodologies
- Communication or formatting issues

Return ONLY valid JSON, no additional text.`, resumeText)
}

func skillsPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume analyst. Extract all technical and soft skills from the resume.

Resume:
%s

Provide your analysis as a JSON object with the following structure:
{"technical_skills": ["skill1", "skill2", ...], "soft_skills": ["skill1", "skill2", ...]}

Categorize skills appropriately.
Return ONLY valid JSON, no additional text.`, resumeText)
}

func improvementsPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert career coach and resume writer.
Provide actionable suggestions to improve the following resume.

Resume:
%s

Provide your analysis as a JSON object with the following structure:
{"suggestions": ["suggestion1", "suggestion2", ...]}

Focus on:
- Specific, actionable improvements
- Content and structure enhancements
- Impactful ways to present achievements
- Keywords and industry terminology
- Formatting and presentation tips

Return ONLY valid JSON, no additional text.`, resumeText)
}

func jobMatchPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`You are an expert recruiter and career matcher.
Analyze how well the candidate's resume matches the job description.

Resume:
%s

Job Description:
%s

Provide your analysis as a JSON object with the following structure:
{
    "match_score": 0-100,
    "matching_skills": ["skill1", "skill2", ...],
    "missing_skills": ["skill1", "skill2", ...],
    "strengths_for_role": ["strength1", "strength2", ...],
    "recommendations": ["recommendation1", "recommendation2", ...]
}

Return ONLY valid JSON, no additional text.`, resumeText, jobDescription)
}

func industrySkillsPrompt(targetRole, experienceLevel string) string {
	if targetRole == "" {
		targetRole = "a general software engineering role"
	}
	if experienceLevel == "" {
		experienceLevel = "mid"
	}
	return fmt.Sprintf(`You are an expert on hiring expectations in the technology industry.
List the skills expected of a candidate applying for the role below.

Role: %s
Experience level: %s

Provide your answer as a JSON object with the following structure:
{"must_have": ["skill1", "skill2", ...], "nice_to_have": ["skill1", "skill2", ...]}

Must-have skills are those a candidate cannot be hired without.
Return ONLY valid JSON, no additional text.`, targetRole, experienceLevel)
}
