package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hireloop/resume-matcher/internal/models"
	"hireloop/resume-matcher/internal/repositories"
)

// Per-file failure stages.
const (
	StageValidation = "validation"
	StageParsing    = "parsing"
	StageExtraction = "extraction"
	StageDatabase   = "database"
	StageMatching   = "matching"
)

var ErrJobFieldsMissing = errors.New("job title and description are required")

// JobTarget says which job the batch is matched against: either a new posting
// created for this run, or an existing one resolved by id. The two variants
// carry only the fields they need, so an invalid combination cannot be
// expressed.
type JobTarget interface {
	jobTarget()
}

type NewJob struct {
	Title            string
	Description      string
	Company          string
	Responsibilities string
	RequiredSkills   []string
}

type ExistingJob struct {
	ID uuid.UUID
}

func (NewJob) jobTarget()      {}
func (ExistingJob) jobTarget() {}

// BatchResult is the outcome of one batch run. It is ephemeral: only resumes
// and match results are persisted.
type BatchResult struct {
	Aborted   bool
	JobID     uuid.UUID
	Summary   models.BatchSummary
	Successes []models.ResumeSuccess
	Failures  []models.FileFailure
	Matches   []models.RankedCandidate
}

type BatchOrchestrator struct {
	validator FileValidator
	extractor TextExtractor
	profiles  ProfileExtractor
	scorers   ScorerFactory
	jobs      repositories.JobRepository
	resumes   repositories.ResumeRepository
	matches   repositories.MatchRepository
	index     ResumeIndexService // optional
	storage   StorageService
	groups    *GroupRunner
}

func NewBatchOrchestrator(
	validator FileValidator,
	extractor TextExtractor,
	profiles ProfileExtractor,
	scorers ScorerFactory,
	jobs repositories.JobRepository,
	resumes repositories.ResumeRepository,
	matches repositories.MatchRepository,
	index ResumeIndexService,
	storage StorageService,
	groups *GroupRunner,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		validator: validator,
		extractor: extractor,
		profiles:  profiles,
		scorers:   scorers,
		jobs:      jobs,
		resumes:   resumes,
		matches:   matches,
		index:     index,
		storage:   storage,
		groups:    groups,
	}
}

// ProcessBatch runs the full pipeline over 1..N uploaded files:
// pre-validation → job resolution → grouped processing → matching. A non-nil
// error is returned only for job-resolution failures; every per-file problem
// is reported inside the result instead. Whatever happens, every ingested
// file is deleted exactly once before this returns.
func (o *BatchOrchestrator) ProcessBatch(ctx context.Context, files []UploadedFile, target JobTarget, accountID uuid.UUID) (*BatchResult, error) {
	cleanup := newCleanupTracker(o.storage)
	defer cleanup.deleteAll(files)

	log.Printf("📦 Starting batch run: %d file(s)\n", len(files))

	// Pre-validate every file concurrently.
	outcomes := make([]ValidationOutcome, len(files))
	g, _ := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			outcomes[i] = o.validator.Validate(f.Path, f.Size)
			return nil
		})
	}
	g.Wait()

	invalidCount := 0
	for _, outcome := range outcomes {
		if !outcome.Valid {
			invalidCount++
		}
	}

	result := &BatchResult{
		Summary:   models.BatchSummary{Total: len(files), ValidationFailed: invalidCount},
		Successes: []models.ResumeSuccess{},
		Failures:  []models.FileFailure{},
		Matches:   []models.RankedCandidate{},
	}

	if !ShouldProceed(invalidCount, len(files)) {
		log.Printf("🛑 Batch aborted: %d of %d files failed validation\n", invalidCount, len(files))
		result.Aborted = true
		for i, f := range files {
			if !outcomes[i].Valid {
				result.Failures = append(result.Failures, validationFailure(f, outcomes[i]))
			}
		}
		return result, nil
	}

	// Resolve the target job before touching any file content.
	job, err := o.resolveJob(ctx, target, accountID)
	if err != nil {
		return nil, err
	}
	result.JobID = job.ID

	// Invalid files are reported and discarded immediately; valid ones go
	// through the grouped pipeline.
	var validFiles []UploadedFile
	for i, f := range files {
		if outcomes[i].Valid {
			validFiles = append(validFiles, f)
			continue
		}
		result.Failures = append(result.Failures, validationFailure(f, outcomes[i]))
		cleanup.delete(f)
	}

	fileResults := o.processFiles(ctx, validFiles, cleanup)

	var persisted []*models.Resume
	for _, fr := range fileResults {
		if fr.failure != nil {
			result.Failures = append(result.Failures, *fr.failure)
			continue
		}
		persisted = append(persisted, fr.resume)
		result.Successes = append(result.Successes, models.ResumeSuccess{
			ID:               fr.resume.ID.String(),
			FileName:         fr.resume.FileName,
			OriginalFileName: fr.resume.OriginalFileName,
			UploadDate:       fr.resume.UploadDate,
			CandidateProfile: fr.resume.Profile(),
		})
	}

	// Match every persisted resume against the job. One resume's failure
	// never blocks the rest.
	scorer := o.scorers(job.MatchText())
	for _, resume := range persisted {
		match, err := o.matchResume(ctx, scorer, job, resume)
		if err != nil {
			log.Printf("⚠️  Matching failed for resume %s: %v\n", resume.ID, err)
			result.Failures = append(result.Failures, models.FileFailure{
				FileName: resume.OriginalFileName,
				Error:    err.Error(),
				Stage:    StageMatching,
			})
			continue
		}
		result.Matches = append(result.Matches, match)
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Score > result.Matches[j].Score
	})

	result.Summary.Successful = len(result.Successes)
	result.Summary.Failed = len(fileResults) - len(persisted)

	log.Printf("✅ Batch run completed: %d successful, %d failed, %d validation-failed\n",
		result.Summary.Successful, result.Summary.Failed, result.Summary.ValidationFailed)
	return result, nil
}

func (o *BatchOrchestrator) resolveJob(ctx context.Context, target JobTarget, accountID uuid.UUID) (*models.JobPosting, error) {
	switch t := target.(type) {
	case NewJob:
		if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Description) == "" {
			return nil, ErrJobFieldsMissing
		}
		skills := make([]string, 0, len(t.RequiredSkills))
		for _, s := range t.RequiredSkills {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				skills = append(skills, s)
			}
		}
		job := &models.JobPosting{
			ID:               uuid.New(),
			AccountID:        accountID,
			Title:            t.Title,
			Description:      t.Description,
			Company:          t.Company,
			Responsibilities: t.Responsibilities,
			RequiredSkills:   models.StringsToJSON(skills),
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		if err := o.jobs.Create(job); err != nil {
			return nil, err
		}
		log.Printf("📋 Created job posting %s (%s)\n", job.ID, job.Title)
		return job, nil
	case ExistingJob:
		job, err := o.jobs.FindByIDForAccount(t.ID, accountID)
		if err != nil {
			return nil, err
		}
		return job, nil
	default:
		return nil, fmt.Errorf("unknown job target %T", target)
	}
}

type fileResult struct {
	resume  *models.Resume
	failure *models.FileFailure
}

// processFiles runs extraction, profiling and persistence for each valid file
// in bounded concurrent groups. Each file's failure is isolated to its own
// result slot. Every slot starts as a failure and is overwritten when its task
// runs to completion, so a cancelled run still accounts for every file.
func (o *BatchOrchestrator) processFiles(ctx context.Context, files []UploadedFile, cleanup *cleanupTracker) []fileResult {
	results := make([]fileResult, len(files))
	tasks := make([]func(ctx context.Context), len(files))

	for i, f := range files {
		results[i] = fileResult{failure: &models.FileFailure{
			FileName: f.OriginalFileName,
			Error:    "processing did not complete: run cancelled",
			Stage:    StageExtraction,
		}}
		tasks[i] = func(ctx context.Context) {
			results[i] = o.processFile(ctx, f)
			cleanup.delete(f)
		}
	}

	o.groups.Run(ctx, tasks)
	return results
}

func (o *BatchOrchestrator) processFile(ctx context.Context, file UploadedFile) fileResult {
	text, err := o.extractor.Extract(file.Path, file.ContentType)
	if err != nil {
		return fileFailure(file, StageExtraction, err)
	}
	if text == "" {
		return fileFailure(file, StageParsing, fmt.Errorf("no readable text in file"))
	}

	// Profile extraction never fails; it degrades to an empty profile.
	profile := o.profiles.ExtractProfile(ctx, text)

	resume := &models.Resume{
		ID:               uuid.New(),
		FileName:         file.StoredName,
		OriginalFileName: file.OriginalFileName,
		RawText:          text,
		UploadDate:       time.Now(),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	resume.ApplyProfile(profile)

	if err := o.resumes.Create(resume); err != nil {
		return fileFailure(file, StageDatabase, err)
	}

	return fileResult{resume: resume}
}

func (o *BatchOrchestrator) matchResume(ctx context.Context, scorer Scorer, job *models.JobPosting, resume *models.Resume) (models.RankedCandidate, error) {
	cacheWrite := func(ctx context.Context, vector []float32, model string, at time.Time) error {
		if err := o.resumes.UpdateEmbedding(resume.ID, vector, model, at); err != nil {
			return err
		}
		// The vector index is best-effort: a failed upsert does not
		// invalidate the score.
		if o.index != nil {
			if err := o.index.UpsertResume(ctx, resume.ID.String(), vector, resume.CandidateName, resume.CandidateEmail, resume.OriginalFileName); err != nil {
				log.Printf("⚠️  Failed to index resume %s: %v\n", resume.ID, err)
			}
		}
		return nil
	}

	score, err := scorer.ScoreMatch(ctx, resume, cacheWrite)
	if err != nil {
		return models.RankedCandidate{}, err
	}

	matched, missing, skillScore := SkillOverlap(resume.SkillsList(), job.RequiredSkillsList())

	profile := resume.Profile()
	record := &models.MatchResult{
		JobID:            job.ID,
		ResumeID:         resume.ID,
		OverallScore:     score.OverallScore,
		SkillsMatchScore: skillScore,
		MatchedSkills:    models.StringsToJSON(matched),
		MissingSkills:    models.StringsToJSON(missing),
		ProfileSnapshot:  models.ProfileToJSON(profile),
		MatchMethod:      models.MatchMethodVector,
		CreatedAt:        time.Now(),
	}
	if err := o.matches.Upsert(record); err != nil {
		return models.RankedCandidate{}, err
	}

	return models.RankedCandidate{
		Name:       profile.Name,
		Email:      profile.Email,
		Phone:      profile.Phone,
		Score:      score.OverallScore,
		Skills:     profile.Skills,
		Experience: profile.YearsOfExperience,
		Strengths:  matched,
		Concerns:   missing,
		Summary:    profile.Summary,
	}, nil
}

func validationFailure(file UploadedFile, outcome ValidationOutcome) models.FileFailure {
	return models.FileFailure{
		FileName: file.OriginalFileName,
		Error:    fmt.Sprintf("%s (confidence: %s)", outcome.Reason, outcome.Confidence),
		Stage:    StageValidation,
	}
}

func fileFailure(file UploadedFile, stage string, err error) fileResult {
	return fileResult{failure: &models.FileFailure{
		FileName: file.OriginalFileName,
		Error:    err.Error(),
		Stage:    stage,
	}}
}

// cleanupTracker deletes each temporary file at most once, no matter how many
// paths (early abort, per-file completion, the final deferred sweep) ask for
// it.
type cleanupTracker struct {
	storage StorageService
	mu      sync.Mutex
	deleted map[string]bool
}

func newCleanupTracker(storage StorageService) *cleanupTracker {
	return &cleanupTracker{
		storage: storage,
		deleted: make(map[string]bool),
	}
}

func (c *cleanupTracker) delete(file UploadedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleted[file.StoredName] {
		return
	}
	c.deleted[file.StoredName] = true
	if err := c.storage.DeleteFile(file.StoredName); err != nil {
		log.Printf("⚠️  Failed to delete temporary file %s: %v\n", file.StoredName, err)
	}
}

func (c *cleanupTracker) deleteAll(files []UploadedFile) {
	for _, f := range files {
		c.delete(f)
	}
}
