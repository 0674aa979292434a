package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hireloop/resume-matcher/internal/models"
)

var ErrResumeNotFound = errors.New("resume not found")

type ResumeRepository interface {
	Create(resume *models.Resume) error
	FindByID(id uuid.UUID) (*models.Resume, error)
	UpdateEmbedding(id uuid.UUID, vector []float32, model string, at time.Time) error
	FindEmbedded() ([]models.Resume, error)
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

// Create implements ResumeRepository.
func (r *resumeRepository) Create(resume *models.Resume) error {
	if err := r.db.Create(resume).Error; err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

// FindByID implements ResumeRepository.
func (r *resumeRepository) FindByID(id uuid.UUID) (*models.Resume, error) {
	var resume models.Resume
	if err := r.db.Where("id = ?", id).First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("failed to find resume: %w", err)
	}
	return &resume, nil
}

// FindEmbedded implements ResumeRepository. Returns every resume that already
// has a cached embedding, oldest first.
func (r *resumeRepository) FindEmbedded() ([]models.Resume, error) {
	var resumes []models.Resume
	err := r.db.
		Where("embedding IS NOT NULL").
		Order("created_at ASC").
		Find(&resumes).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find embedded resumes: %w", err)
	}
	return resumes, nil
}

// UpdateEmbedding implements ResumeRepository. The three cache fields are
// written together to keep the all-or-nothing invariant on the row.
func (r *resumeRepository) UpdateEmbedding(id uuid.UUID, vector []float32, model string, at time.Time) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	result := r.db.Model(&models.Resume{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding":       data,
			"embedding_model": model,
			"embedding_date":  at,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update embedding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}
