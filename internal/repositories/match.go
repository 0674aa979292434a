package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hireloop/resume-matcher/internal/models"
)

type MatchRepository interface {
	Upsert(match *models.MatchResult) error
	FindByJobID(jobID uuid.UUID) ([]models.MatchResult, error)
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

// Upsert implements MatchRepository. The (job_id, resume_id) pair is unique:
// re-matching the same pair overwrites the previous result.
func (r *matchRepository) Upsert(match *models.MatchResult) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	match.UpdatedAt = time.Now()

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}, {Name: "resume_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score",
			"skills_match_score",
			"matched_skills",
			"missing_skills",
			"profile_snapshot",
			"match_method",
			"updated_at",
		}),
	}).Create(match).Error

	if err != nil {
		return fmt.Errorf("failed to upsert match result: %w", err)
	}
	return nil
}

// FindByJobID implements MatchRepository, ranked best match first.
func (r *matchRepository) FindByJobID(jobID uuid.UUID) ([]models.MatchResult, error) {
	var matches []models.MatchResult
	err := r.db.
		Where("job_id = ?", jobID).
		Order("overall_score DESC").
		Find(&matches).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find match results: %w", err)
	}
	return matches, nil
}
