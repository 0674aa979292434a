package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"hireloop/resume-matcher/internal/models"
)

// profileTemperature keeps extraction close to deterministic; the prompt asks
// for facts, not prose.
const profileTemperature = 0.1

type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, text string) models.CandidateProfile
}

type profileExtractor struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	inputLimit    int
	maxRetries    int
}

func NewProfileExtractor(gemini GeminiService, inputLimit, maxRetries int) ProfileExtractor {
	return &profileExtractor{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		inputLimit:    inputLimit,
		maxRetries:    maxRetries,
	}
}

// ExtractProfile implements ProfileExtractor. It never fails: any model error
// or malformed response degrades to an empty-but-valid profile so the resume
// can still be persisted.
func (p *profileExtractor) ExtractProfile(ctx context.Context, text string) models.CandidateProfile {
	prompt := p.promptBuilder.BuildProfileExtractionPrompt(TruncateForPrompt(text, p.inputLimit))

	response, err := p.gemini.GenerateTextWithRetry(ctx, prompt, profileTemperature, p.maxRetries)
	if err != nil {
		log.Printf("⚠️  Profile extraction failed, using empty profile: %v\n", err)
		return models.EmptyCandidateProfile()
	}

	parsed, ok := parseProfileResponse(response)
	if !ok {
		log.Printf("⚠️  Profile response was not valid JSON, using empty profile\n")
		return models.EmptyCandidateProfile()
	}
	return parsed
}

// parseProfileResponse decodes the model output, coercing every field
// independently so one bad field never discards the rest.
func parseProfileResponse(response string) (models.CandidateProfile, bool) {
	jsonStr := extractJSON(response)

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return models.CandidateProfile{}, false
	}

	profile := models.EmptyCandidateProfile()
	profile.Name = stringField(raw, "name")
	profile.Email = stringField(raw, "email")
	profile.Phone = stringField(raw, "phone")
	profile.YearsOfExperience = stringField(raw, "years_of_experience")
	profile.Summary = stringField(raw, "summary")

	if skills, ok := raw["skills"].([]interface{}); ok {
		for _, s := range skills {
			if skill, ok := s.(string); ok && strings.TrimSpace(skill) != "" {
				profile.Skills = append(profile.Skills, strings.TrimSpace(skill))
			}
		}
	}

	return profile, true
}

func stringField(raw map[string]interface{}, key string) string {
	if value, ok := raw[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// extractJSON pulls a JSON object out of text that may be wrapped in markdown
// code fences or surrounding commentary.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
