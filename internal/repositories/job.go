package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hireloop/resume-matcher/internal/models"
)

var ErrJobNotFound = errors.New("job posting not found")

type JobRepository interface {
	Create(job *models.JobPosting) error
	FindByIDForAccount(id uuid.UUID, accountID uuid.UUID) (*models.JobPosting, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create implements JobRepository.
func (r *jobRepository) Create(job *models.JobPosting) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

// FindByIDForAccount implements JobRepository. A job owned by another account
// is reported the same way as a missing one.
func (r *jobRepository) FindByIDForAccount(id uuid.UUID, accountID uuid.UUID) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := r.db.Where("id = ? AND account_id = ?", id, accountID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find job posting: %w", err)
	}
	return &job, nil
}
