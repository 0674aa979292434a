package models

import "time"

// BatchJobRequest carries the job-targeting fields of an upload request.
type BatchJobRequest struct {
	JobMode             string `json:"job_mode" validate:"required,oneof=new existing"`
	JobTitle            string `json:"job_title"`
	JobDescription      string `json:"job_description"`
	JobCompany          string `json:"job_company"`
	JobResponsibilities string `json:"job_responsibilities"`
	JobSkills           string `json:"job_skills"`
	JobID               string `json:"job_id" validate:"omitempty,uuid"`
}

type BatchSummary struct {
	Total            int `json:"total"`
	Successful       int `json:"successful"`
	Failed           int `json:"failed"`
	ValidationFailed int `json:"validationFailed"`
}

type ResumeSuccess struct {
	ID               string           `json:"id"`
	FileName         string           `json:"fileName"`
	OriginalFileName string           `json:"originalFileName"`
	UploadDate       time.Time        `json:"uploadDate"`
	CandidateProfile CandidateProfile `json:"candidateProfile"`
}

type FileFailure struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
	Stage    string `json:"stage"`
}

type RankedCandidate struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Score      int      `json:"score"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Strengths  []string `json:"strengths"`
	Concerns   []string `json:"concerns"`
	Summary    string   `json:"summary"`
}

type BatchUploadResponse struct {
	Message   string            `json:"message"`
	JobID     string            `json:"jobId,omitempty"`
	Summary   BatchSummary      `json:"summary"`
	Successes []ResumeSuccess   `json:"successes"`
	Failures  []FileFailure     `json:"failures"`
	Matches   []RankedCandidate `json:"matches"`
}

type CandidateSearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type CandidateSearchHit struct {
	ResumeID string  `json:"resume_id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	FileName string  `json:"file_name"`
	Score    float32 `json:"score"`
}
