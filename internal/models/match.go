package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MatchMethod string

const (
	MatchMethodVector  MatchMethod = "vector"
	MatchMethodKeyword MatchMethod = "keyword"
	MatchMethodHybrid  MatchMethod = "hybrid"
)

// MatchResult holds one scored (job, resume) pair. The pair is unique:
// re-matching overwrites the existing row instead of creating a duplicate.
type MatchResult struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_match_job_resume" json:"job_id"`
	ResumeID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_match_job_resume" json:"resume_id"`
	OverallScore     int            `gorm:"not null" json:"overall_score"`
	SkillsMatchScore int            `gorm:"not null" json:"skills_match_score"`
	MatchedSkills    datatypes.JSON `gorm:"type:jsonb" json:"matched_skills"`
	MissingSkills    datatypes.JSON `gorm:"type:jsonb" json:"missing_skills"`
	ProfileSnapshot  datatypes.JSON `gorm:"type:jsonb" json:"profile_snapshot"`
	MatchMethod      MatchMethod    `gorm:"type:text;not null;default:'vector'" json:"match_method"`
	CreatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (m *MatchResult) TableName() string {
	return "match_results"
}

func (m *MatchResult) MatchedSkillsList() []string {
	return JSONToStrings(m.MatchedSkills)
}

func (m *MatchResult) MissingSkillsList() []string {
	return JSONToStrings(m.MissingSkills)
}

// Snapshot decodes the candidate profile captured at match time.
func (m *MatchResult) Snapshot() CandidateProfile {
	profile := EmptyCandidateProfile()
	if len(m.ProfileSnapshot) == 0 {
		return profile
	}
	if err := json.Unmarshal(m.ProfileSnapshot, &profile); err != nil {
		return EmptyCandidateProfile()
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	return profile
}
