package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireloop/resume-matcher/internal/models"
	"hireloop/resume-matcher/internal/repositories"
)

type fakeValidator struct {
	invalid map[string]string // path -> rejection reason
}

func (f *fakeValidator) Validate(filePath string, declaredSize int64) ValidationOutcome {
	if reason, ok := f.invalid[filePath]; ok {
		return ValidationOutcome{Valid: false, Reason: reason, Confidence: ConfidenceMedium}
	}
	return ValidationOutcome{Valid: true, Confidence: ConfidenceHigh}
}

type fakeExtractor struct {
	texts  map[string]string // path -> extracted text
	errors map[string]error  // path -> extraction error
}

func (f *fakeExtractor) Extract(filePath string, contentType string) (string, error) {
	if err, ok := f.errors[filePath]; ok {
		return "", err
	}
	return f.texts[filePath], nil
}

type fakeProfiles struct{}

func (f *fakeProfiles) ExtractProfile(ctx context.Context, text string) models.CandidateProfile {
	return models.CandidateProfile{
		Name:   "Candidate for " + text,
		Skills: []string{"go", "docker"},
	}
}

type fakeScorer struct {
	scores map[string]int   // raw text -> score
	fail   map[string]error // raw text -> scoring error
}

func (f *fakeScorer) ScoreMatch(ctx context.Context, resume *models.Resume, cacheWrite EmbeddingCacheWrite) (MatchScore, error) {
	if err, ok := f.fail[resume.RawText]; ok {
		return MatchScore{}, err
	}
	if cacheWrite != nil {
		if err := cacheWrite(ctx, []float32{1, 0}, "fake-embedding-model", time.Now()); err != nil {
			return MatchScore{}, err
		}
	}
	return MatchScore{OverallScore: f.scores[resume.RawText], EmbeddingUsed: true}, nil
}

type fakeJobRepo struct {
	mu      sync.Mutex
	created []*models.JobPosting
	jobs    map[uuid.UUID]*models.JobPosting
}

func (f *fakeJobRepo) Create(job *models.JobPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobRepo) FindByIDForAccount(id uuid.UUID, accountID uuid.UUID) (*models.JobPosting, error) {
	if job, ok := f.jobs[id]; ok && job.AccountID == accountID {
		return job, nil
	}
	return nil, repositories.ErrJobNotFound
}

type fakeResumeRepo struct {
	mu         sync.Mutex
	created    []*models.Resume
	createFail map[string]error // raw text -> insert error
	embeddings map[uuid.UUID][]float32
}

func (f *fakeResumeRepo) Create(resume *models.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.createFail[resume.RawText]; ok {
		return err
	}
	f.created = append(f.created, resume)
	return nil
}

func (f *fakeResumeRepo) FindByID(id uuid.UUID) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repositories.ErrResumeNotFound
}

func (f *fakeResumeRepo) UpdateEmbedding(id uuid.UUID, vector []float32, model string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embeddings == nil {
		f.embeddings = make(map[uuid.UUID][]float32)
	}
	f.embeddings[id] = vector
	return nil
}

func (f *fakeResumeRepo) FindEmbedded() ([]models.Resume, error) {
	return nil, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	upserts []*models.MatchResult
}

func (f *fakeMatchRepo) Upsert(match *models.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, match)
	return nil
}

func (f *fakeMatchRepo) FindByJobID(jobID uuid.UUID) ([]models.MatchResult, error) {
	return nil, nil
}

type fakeIndex struct {
	mu      sync.Mutex
	upserts []string
	fail    error
}

func (f *fakeIndex) InitCollection() error { return nil }

func (f *fakeIndex) UpsertResume(ctx context.Context, resumeID string, vector []float32, name, email, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.upserts = append(f.upserts, resumeID)
	return nil
}

func (f *fakeIndex) SearchCandidates(ctx context.Context, queryVector []float32, limit int) ([]models.CandidateSearchHit, error) {
	return nil, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	deletes map[string]int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{deletes: make(map[string]int)}
}

func (f *fakeStorage) SaveFile(file *multipart.FileHeader) (UploadedFile, error) {
	return UploadedFile{}, fmt.Errorf("not used in these tests")
}

func (f *fakeStorage) DeleteFile(storedName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes[storedName]++
	return nil
}

func (f *fakeStorage) EnsureUploadDir() error { return nil }

type batchFixture struct {
	validator *fakeValidator
	extractor *fakeExtractor
	scorer    *fakeScorer
	jobRepo   *fakeJobRepo
	resumes   *fakeResumeRepo
	matches   *fakeMatchRepo
	index     *fakeIndex
	storage   *fakeStorage
}

func newBatchFixture() *batchFixture {
	return &batchFixture{
		validator: &fakeValidator{invalid: map[string]string{}},
		extractor: &fakeExtractor{texts: map[string]string{}, errors: map[string]error{}},
		scorer:    &fakeScorer{scores: map[string]int{}, fail: map[string]error{}},
		jobRepo:   &fakeJobRepo{jobs: map[uuid.UUID]*models.JobPosting{}},
		resumes:   &fakeResumeRepo{createFail: map[string]error{}},
		matches:   &fakeMatchRepo{},
		index:     &fakeIndex{},
		storage:   newFakeStorage(),
	}
}

func (fx *batchFixture) orchestrator() *BatchOrchestrator {
	factory := func(jobText string) Scorer { return fx.scorer }
	return NewBatchOrchestrator(
		fx.validator,
		fx.extractor,
		&fakeProfiles{},
		factory,
		fx.jobRepo,
		fx.resumes,
		fx.matches,
		fx.index,
		fx.storage,
		NewGroupRunner(3, 0),
	)
}

func (fx *batchFixture) files(n int) []UploadedFile {
	files := make([]UploadedFile, n)
	for i := range files {
		name := fmt.Sprintf("resume_%d", i)
		files[i] = UploadedFile{
			Path:             "/tmp/" + name + ".pdf",
			StoredName:       name + ".pdf",
			OriginalFileName: name + "_original.pdf",
			Size:             1000,
			ContentType:      ContentTypePDF,
		}
		fx.extractor.texts[files[i].Path] = fmt.Sprintf("text %d", i)
		fx.scorer.scores[fmt.Sprintf("text %d", i)] = 50 + i
	}
	return files
}

func (fx *batchFixture) assertAllDeletedOnce(t *testing.T, files []UploadedFile) {
	t.Helper()
	for _, f := range files {
		assert.Equal(t, 1, fx.storage.deletes[f.StoredName], "file %s", f.StoredName)
	}
}

func newJobTarget() NewJob {
	return NewJob{
		Title:          "Backend Engineer",
		Description:    "Build services in Go",
		RequiredSkills: []string{"go", "postgres"},
	}
}

func TestProcessBatch_AbortsWhenTooManyFilesInvalid(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(10)
	for i := 0; i < 4; i++ {
		fx.validator.invalid[files[i].Path] = "file does not look like a valid PDF"
	}

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Len(t, result.Failures, 4)
	for _, failure := range result.Failures {
		assert.Equal(t, StageValidation, failure.Stage)
		assert.Contains(t, failure.Error, "confidence: medium")
	}
	assert.Empty(t, result.Successes)
	assert.Empty(t, fx.resumes.created)
	assert.Empty(t, fx.jobRepo.created)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_ProceedsAtExactlyThirtyPercentInvalid(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(10)
	for i := 0; i < 3; i++ {
		fx.validator.invalid[files[i].Path] = "corrupted"
	}

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.Len(t, result.Successes, 7)
	assert.Len(t, result.Failures, 3)
	assert.Len(t, result.Matches, 7)
	assert.Equal(t, models.BatchSummary{Total: 10, Successful: 7, Failed: 0, ValidationFailed: 3}, result.Summary)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_CreatesJobForNewTarget(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(1)

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	require.Len(t, fx.jobRepo.created, 1)
	job := fx.jobRepo.created[0]
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, []string{"go", "postgres"}, job.RequiredSkillsList())
	assert.Equal(t, job.ID, result.JobID)
}

func TestProcessBatch_NewTargetRequiresTitleAndDescription(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(1)

	_, err := fx.orchestrator().ProcessBatch(context.Background(), files, NewJob{Title: "   "}, uuid.New())

	require.ErrorIs(t, err, ErrJobFieldsMissing)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_ExistingTargetChecksOwnership(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(1)

	owner := uuid.New()
	job := &models.JobPosting{ID: uuid.New(), AccountID: owner, Title: "Backend Engineer", Description: "Go services"}
	fx.jobRepo.jobs[job.ID] = job

	// Wrong account cannot see the job.
	_, err := fx.orchestrator().ProcessBatch(context.Background(), files, ExistingJob{ID: job.ID}, uuid.New())
	require.ErrorIs(t, err, repositories.ErrJobNotFound)
	fx.assertAllDeletedOnce(t, files)

	// The owner can.
	fx2 := newBatchFixture()
	fx2.jobRepo.jobs[job.ID] = job
	files2 := fx2.files(1)
	result, err := fx2.orchestrator().ProcessBatch(context.Background(), files2, ExistingJob{ID: job.ID}, owner)
	require.NoError(t, err)
	assert.Equal(t, job.ID, result.JobID)
}

func TestProcessBatch_IsolatesPerFileFailures(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(5)

	fx.extractor.errors[files[1].Path] = fmt.Errorf("pdf parse failure")
	fx.extractor.texts[files[2].Path] = "" // extracted but empty
	fx.resumes.createFail["text 3"] = fmt.Errorf("insert failed")

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	assert.Len(t, result.Successes, 2)
	require.Len(t, result.Failures, 3)

	stages := map[string]string{}
	for _, failure := range result.Failures {
		stages[failure.FileName] = failure.Stage
	}
	assert.Equal(t, StageExtraction, stages[files[1].OriginalFileName])
	assert.Equal(t, StageParsing, stages[files[2].OriginalFileName])
	assert.Equal(t, StageDatabase, stages[files[3].OriginalFileName])

	assert.Equal(t, models.BatchSummary{Total: 5, Successful: 2, Failed: 3, ValidationFailed: 0}, result.Summary)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_MatchingFailureDoesNotBlockOthers(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(3)
	fx.scorer.fail["text 1"] = fmt.Errorf("embedding quota exceeded")

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	// All three resumes persisted; one failed only at the matching stage.
	assert.Len(t, result.Successes, 3)
	assert.Len(t, result.Matches, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, StageMatching, result.Failures[0].Stage)
	assert.Equal(t, files[1].OriginalFileName, result.Failures[0].FileName)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_MatchesRankedBestFirst(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(4)
	fx.scorer.scores["text 0"] = 42
	fx.scorer.scores["text 1"] = 91
	fx.scorer.scores["text 2"] = 17
	fx.scorer.scores["text 3"] = 65

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	require.Len(t, result.Matches, 4)
	assert.Equal(t, []int{91, 65, 42, 17}, []int{
		result.Matches[0].Score,
		result.Matches[1].Score,
		result.Matches[2].Score,
		result.Matches[3].Score,
	})
}

func TestProcessBatch_PersistsMatchResultsAndEmbeddings(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(2)

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	require.Len(t, fx.matches.upserts, 2)
	for _, m := range fx.matches.upserts {
		assert.Equal(t, result.JobID, m.JobID)
		assert.Equal(t, models.MatchMethodVector, m.MatchMethod)
		// The profile reports go+docker against a go+postgres job.
		assert.Equal(t, []string{"go"}, m.MatchedSkillsList())
		assert.Equal(t, []string{"postgres"}, m.MissingSkillsList())
		assert.Equal(t, 50, m.SkillsMatchScore)
	}
	// Every scored resume had its embedding cached and indexed.
	assert.Len(t, fx.resumes.embeddings, 2)
	assert.Len(t, fx.index.upserts, 2)
}

// cancellingProfiles cancels the run the first time it is invoked, simulating
// a client disconnect while a group is in flight.
type cancellingProfiles struct {
	cancel context.CancelFunc
}

func (c *cancellingProfiles) ExtractProfile(ctx context.Context, text string) models.CandidateProfile {
	c.cancel()
	return models.CandidateProfile{Name: "Candidate", Skills: []string{"go"}}
}

func TestProcessBatch_CancelledBeforeProcessingFailsEveryFile(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := fx.orchestrator().ProcessBatch(ctx, files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, result.Successes)
	require.Len(t, result.Failures, 6)
	for _, failure := range result.Failures {
		assert.Contains(t, failure.Error, "cancelled")
	}
	assert.Equal(t, models.BatchSummary{Total: 6, Successful: 0, Failed: 6, ValidationFailed: 0}, result.Summary)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_CancelledMidBatchAccountsForEveryFile(t *testing.T) {
	fx := newBatchFixture()
	files := fx.files(6)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := func(jobText string) Scorer { return fx.scorer }
	orchestrator := NewBatchOrchestrator(
		fx.validator,
		fx.extractor,
		&cancellingProfiles{cancel: cancel},
		factory,
		fx.jobRepo,
		fx.resumes,
		fx.matches,
		fx.index,
		fx.storage,
		NewGroupRunner(3, 0),
	)

	result, err := orchestrator.ProcessBatch(ctx, files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	// The in-flight group finishes; the skipped group is reported, not lost.
	assert.Len(t, result.Successes, 3)
	require.Len(t, result.Failures, 3)
	for _, failure := range result.Failures {
		assert.Contains(t, failure.Error, "cancelled")
	}
	assert.Equal(t, 6, result.Summary.Total)
	assert.Equal(t, 3, result.Summary.Successful)
	assert.Equal(t, 3, result.Summary.Failed)
	fx.assertAllDeletedOnce(t, files)
}

func TestProcessBatch_IndexFailureIsNotFatal(t *testing.T) {
	fx := newBatchFixture()
	fx.index.fail = fmt.Errorf("qdrant unreachable")
	files := fx.files(2)

	result, err := fx.orchestrator().ProcessBatch(context.Background(), files, newJobTarget(), uuid.New())

	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)
	assert.Empty(t, result.Failures)
}
