package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobPosting struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	Title            string         `gorm:"type:text;not null" json:"title"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Company          string         `gorm:"type:text" json:"company"`
	Responsibilities string         `gorm:"type:text" json:"responsibilities"`
	RequiredSkills   datatypes.JSON `gorm:"type:jsonb" json:"required_skills"`
	CreatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (j *JobPosting) TableName() string {
	return "job_postings"
}

// RequiredSkillsList decodes the stored skill list; a missing or unreadable
// column yields an empty list rather than an error.
func (j *JobPosting) RequiredSkillsList() []string {
	return JSONToStrings(j.RequiredSkills)
}

// MatchText is the job-side text used for embedding comparison.
func (j *JobPosting) MatchText() string {
	text := j.Title + "\n" + j.Description
	if j.Responsibilities != "" {
		text += "\n" + j.Responsibilities
	}
	return text
}
