package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Resume struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FileName         string         `gorm:"type:text;not null" json:"file_name"`
	OriginalFileName string         `gorm:"type:text;not null" json:"original_file_name"`
	RawText          string         `gorm:"type:text" json:"-"`
	CandidateName    string         `gorm:"type:text" json:"candidate_name"`
	CandidateEmail   string         `gorm:"type:text" json:"candidate_email"`
	CandidatePhone   string         `gorm:"type:text" json:"candidate_phone"`
	ExperienceYears  string         `gorm:"type:text" json:"experience_years"`
	Summary          string         `gorm:"type:text" json:"summary"`
	Skills           datatypes.JSON `gorm:"type:jsonb" json:"skills"`

	// Embedding cache: all three fields are set together the first time a
	// match requires the vector, and never recomputed afterwards.
	Embedding      datatypes.JSON `gorm:"type:jsonb" json:"-"`
	EmbeddingModel string         `gorm:"type:text" json:"embedding_model,omitempty"`
	EmbeddingDate  *time.Time     `gorm:"type:timestamp" json:"embedding_date,omitempty"`

	UploadDate time.Time `gorm:"type:timestamp;default:now()" json:"upload_date"`
	CreatedAt  time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (r *Resume) TableName() string {
	return "resumes"
}

func (r *Resume) SkillsList() []string {
	return JSONToStrings(r.Skills)
}

// EmbeddingVector decodes the cached embedding; nil when no embedding has been
// computed yet.
func (r *Resume) EmbeddingVector() []float32 {
	if len(r.Embedding) == 0 {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(r.Embedding, &vec); err != nil {
		return nil
	}
	return vec
}

// SetEmbedding caches the vector together with the model that produced it and
// the time it was computed.
func (r *Resume) SetEmbedding(vector []float32, model string, at time.Time) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	r.Embedding = datatypes.JSON(data)
	r.EmbeddingModel = model
	r.EmbeddingDate = &at
}

// Profile reassembles the candidate profile stored on the resume row.
func (r *Resume) Profile() CandidateProfile {
	return CandidateProfile{
		Name:              r.CandidateName,
		Email:             r.CandidateEmail,
		Phone:             r.CandidatePhone,
		YearsOfExperience: r.ExperienceYears,
		Skills:            r.SkillsList(),
		Summary:           r.Summary,
	}
}

// ApplyProfile copies extracted profile fields onto the resume row.
func (r *Resume) ApplyProfile(profile CandidateProfile) {
	r.CandidateName = profile.Name
	r.CandidateEmail = profile.Email
	r.CandidatePhone = profile.Phone
	r.ExperienceYears = profile.YearsOfExperience
	r.Summary = profile.Summary
	r.Skills = StringsToJSON(profile.Skills)
}
