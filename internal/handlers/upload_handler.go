package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hireloop/resume-matcher/internal/models"
	"hireloop/resume-matcher/internal/repositories"
	"hireloop/resume-matcher/internal/services"
)

type UploadHandler struct {
	orchestrator   *services.BatchOrchestrator
	storageService services.StorageService
	validate       *validator.Validate
	maxBatchFiles  int
}

func NewUploadHandler(
	orchestrator *services.BatchOrchestrator,
	storageService services.StorageService,
	maxBatchFiles int,
) *UploadHandler {
	return &UploadHandler{
		orchestrator:   orchestrator,
		storageService: storageService,
		validate:       validator.New(),
		maxBatchFiles:  maxBatchFiles,
	}
}

// HandleBatchUpload accepts 1..N resume files under the "resumes" multipart
// field plus job-targeting form fields, and runs the full matching pipeline.
func (h *UploadHandler) HandleBatchUpload(c *fiber.Ctx) error {
	accountID, err := accountIDFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	fileHeaders := form.File["resumes"]
	if len(fileHeaders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No resume files uploaded. Please upload at least one file under 'resumes'.",
		})
	}
	if len(fileHeaders) > h.maxBatchFiles {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Too many files. Max per batch: %d", h.maxBatchFiles),
		})
	}

	target, err := h.jobTargetFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return h.runBatch(c, fileHeaders, target, accountID)
}

// HandleSingleUpload is the single-file variant of HandleBatchUpload: the
// file under "resume" goes through the same pipeline as a batch of one.
func (h *UploadHandler) HandleSingleUpload(c *fiber.Ctx) error {
	accountID, err := accountIDFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No resume file uploaded. Please upload a file under 'resume'.",
		})
	}

	target, err := h.jobTargetFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return h.runBatch(c, []*multipart.FileHeader{fileHeader}, target, accountID)
}

func (h *UploadHandler) runBatch(c *fiber.Ctx, fileHeaders []*multipart.FileHeader, target services.JobTarget, accountID uuid.UUID) error {
	var files []services.UploadedFile
	for _, header := range fileHeaders {
		saved, err := h.storageService.SaveFile(header)
		if err != nil {
			// Files already on disk belong to this request; drop them
			// before bailing out.
			for _, f := range files {
				h.storageService.DeleteFile(f.StoredName)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save file %s: %v", header.Filename, err),
			})
		}
		files = append(files, saved)
	}

	result, err := h.orchestrator.ProcessBatch(c.Context(), files, target, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job posting not found",
			})
		}
		if errors.Is(err, services.ErrJobFieldsMissing) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("batch processing failed: %v", err),
		})
	}

	response := models.BatchUploadResponse{
		Summary:   result.Summary,
		Successes: result.Successes,
		Failures:  result.Failures,
		Matches:   result.Matches,
	}
	if result.JobID != uuid.Nil {
		response.JobID = result.JobID.String()
	}

	switch {
	case result.Aborted:
		response.Message = "Batch aborted: too many files failed validation"
		return c.Status(fiber.StatusUnprocessableEntity).JSON(response)
	case len(result.Successes) == 0:
		response.Message = "All files failed processing"
		return c.Status(fiber.StatusUnprocessableEntity).JSON(response)
	default:
		response.Message = "Batch processed successfully"
		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func (h *UploadHandler) jobTargetFromForm(c *fiber.Ctx) (services.JobTarget, error) {
	req := models.BatchJobRequest{
		JobMode:             c.FormValue("job_mode"),
		JobTitle:            c.FormValue("job_title"),
		JobDescription:      c.FormValue("job_description"),
		JobCompany:          c.FormValue("job_company"),
		JobResponsibilities: c.FormValue("job_responsibilities"),
		JobSkills:           c.FormValue("job_skills"),
		JobID:               c.FormValue("job_id"),
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid job target: job_mode must be 'new' or 'existing', job_id must be a uuid")
	}

	if req.JobMode == "existing" {
		if req.JobID == "" {
			return nil, fmt.Errorf("job_id is required when job_mode is 'existing'")
		}
		jobID, err := uuid.Parse(req.JobID)
		if err != nil {
			return nil, fmt.Errorf("invalid job_id: %v", err)
		}
		return services.ExistingJob{ID: jobID}, nil
	}

	return services.NewJob{
		Title:            req.JobTitle,
		Description:      req.JobDescription,
		Company:          req.JobCompany,
		Responsibilities: req.JobResponsibilities,
		RequiredSkills:   splitSkills(req.JobSkills),
	}, nil
}

func accountIDFromHeader(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get("X-Account-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing X-Account-ID header")
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid X-Account-ID header: must be a uuid")
	}
	return accountID, nil
}

func splitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
