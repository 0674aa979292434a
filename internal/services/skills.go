package services

import "strings"

// SkillOverlap compares a resume's extracted skills against a job's declared
// skills. Two skills match when either lower-cased string contains the other
// as a substring, so "React" matches "React.js". The tradeoff is deliberate:
// recall over precision, and short tokens like "C" will also match "C++".
//
// The score is the share of job skills covered, 0-100; a job with no declared
// skills scores 0. matched carries the resume skills (original casing) that
// covered a job skill; missing carries every uncovered job skill.
func SkillOverlap(resumeSkills, jobSkills []string) (matched, missing []string, score int) {
	matched = []string{}
	missing = []string{}

	if len(jobSkills) == 0 {
		return matched, missing, 0
	}

	seen := make(map[string]bool)
	matchedCount := 0

	for _, jobSkill := range jobSkills {
		jobLower := strings.ToLower(strings.TrimSpace(jobSkill))
		if jobLower == "" {
			continue
		}

		found := false
		for _, resumeSkill := range resumeSkills {
			resumeLower := strings.ToLower(strings.TrimSpace(resumeSkill))
			if resumeLower == "" {
				continue
			}
			if strings.Contains(resumeLower, jobLower) || strings.Contains(jobLower, resumeLower) {
				found = true
				if !seen[resumeLower] {
					seen[resumeLower] = true
					matched = append(matched, strings.TrimSpace(resumeSkill))
				}
				break
			}
		}

		if found {
			matchedCount++
		} else {
			missing = append(missing, jobSkill)
		}
	}

	score = matchedCount * 100 / len(jobSkills)
	return matched, missing, score
}
