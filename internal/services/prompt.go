package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildProfileExtractionPrompt creates the prompt that turns raw resume text
// into a structured candidate profile. The response must be a bare JSON
// object with exactly the six named fields.
func (pb *PromptBuilder) BuildProfileExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume parser. Extract the candidate's information from the resume text below.

RESUME TEXT:
%s

Return ONLY a JSON object with exactly these fields, no markdown, no commentary:
{
  "name": "<candidate full name, or empty string if not found>",
  "email": "<email address, or empty string>",
  "phone": "<phone number, or empty string>",
  "years_of_experience": "<total years of professional experience as stated or estimated, e.g. '5 years', or empty string>",
  "skills": ["<skill 1>", "<skill 2>", "... ordered most relevant first"],
  "summary": "<2-3 sentence professional summary of the candidate>"
}

Every field must be present. Use an empty string or empty array when the resume does not contain the information. Do not invent facts.`,
		resumeText)
}
