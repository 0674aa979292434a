package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hireloop/resume-matcher/internal/models"
	"hireloop/resume-matcher/internal/repositories"
	"hireloop/resume-matcher/internal/services"
)

const defaultSearchLimit = 10

type MatchHandler struct {
	jobRepo   repositories.JobRepository
	matchRepo repositories.MatchRepository
	gemini    services.GeminiService
	index     services.ResumeIndexService
	validate  *validator.Validate
}

func NewMatchHandler(
	jobRepo repositories.JobRepository,
	matchRepo repositories.MatchRepository,
	gemini services.GeminiService,
	index services.ResumeIndexService,
) *MatchHandler {
	return &MatchHandler{
		jobRepo:   jobRepo,
		matchRepo: matchRepo,
		gemini:    gemini,
		index:     index,
		validate:  validator.New(),
	}
}

// HandleJobMatches returns the stored match results for a job, best first.
func (h *MatchHandler) HandleJobMatches(c *fiber.Ctx) error {
	accountID, err := accountIDFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	job, err := h.jobRepo.FindByIDForAccount(jobID, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job posting not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to load job posting: %v", err),
		})
	}

	matches, err := h.matchRepo.FindByJobID(job.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to load match results: %v", err),
		})
	}

	ranked := make([]models.RankedCandidate, 0, len(matches))
	for _, m := range matches {
		profile := m.Snapshot()
		ranked = append(ranked, models.RankedCandidate{
			Name:       profile.Name,
			Email:      profile.Email,
			Phone:      profile.Phone,
			Score:      m.OverallScore,
			Skills:     profile.Skills,
			Experience: profile.YearsOfExperience,
			Strengths:  m.MatchedSkillsList(),
			Concerns:   m.MissingSkillsList(),
			Summary:    profile.Summary,
		})
	}

	return c.JSON(fiber.Map{
		"job_id":  job.ID.String(),
		"title":   job.Title,
		"matches": ranked,
	})
}

// HandleCandidateSearch embeds a free-text query and searches the vector
// index for the closest indexed resumes.
func (h *MatchHandler) HandleCandidateSearch(c *fiber.Ctx) error {
	var req models.CandidateSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required; limit must be between 1 and 50",
		})
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}

	vector, err := h.gemini.GenerateEmbedding(c.Context(), req.Query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to embed query: %v", err),
		})
	}

	hits, err := h.index.SearchCandidates(c.Context(), vector, req.Limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("candidate search failed: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"query": req.Query,
		"hits":  hits,
	})
}
