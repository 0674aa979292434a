package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"hireloop/resume-matcher/internal/models"
)

// MatchScore is the embedding-derived fit between one resume and the job.
// EmbeddingUsed is false only when a degenerate (zero-norm) vector forced the
// similarity to 0.
type MatchScore struct {
	OverallScore  int
	EmbeddingUsed bool
}

// EmbeddingCacheWrite persists a freshly computed resume embedding. The write
// happens at most once per resume: cached vectors are reused on every later
// match.
type EmbeddingCacheWrite func(ctx context.Context, vector []float32, model string, at time.Time) error

type Scorer interface {
	ScoreMatch(ctx context.Context, resume *models.Resume, cacheWrite EmbeddingCacheWrite) (MatchScore, error)
}

// ScorerFactory builds a per-run scorer bound to one job's text. The job
// vector is memoized inside the scorer for the run and never persisted on the
// job row.
type ScorerFactory func(jobText string) Scorer

func NewScorerFactory(gemini GeminiService, embedLimit int) ScorerFactory {
	return func(jobText string) Scorer {
		return &matchScorer{
			gemini:     gemini,
			jobText:    jobText,
			embedLimit: embedLimit,
		}
	}
}

type matchScorer struct {
	gemini     GeminiService
	jobText    string
	jobVector  []float32
	embedLimit int
}

// ScoreMatch implements Scorer. Unlike profile extraction, an embedding
// failure here is a real error: without a vector the score is meaningless.
func (s *matchScorer) ScoreMatch(ctx context.Context, resume *models.Resume, cacheWrite EmbeddingCacheWrite) (MatchScore, error) {
	resumeVector := resume.EmbeddingVector()
	if len(resumeVector) == 0 {
		vector, err := s.gemini.GenerateEmbedding(ctx, TruncateForPrompt(resume.RawText, s.embedLimit))
		if err != nil {
			return MatchScore{}, fmt.Errorf("failed to embed resume %s: %w", resume.ID, err)
		}

		now := time.Now()
		model := s.gemini.EmbeddingModel()
		if cacheWrite != nil {
			if err := cacheWrite(ctx, vector, model, now); err != nil {
				return MatchScore{}, fmt.Errorf("failed to cache resume embedding: %w", err)
			}
		}
		resume.SetEmbedding(vector, model, now)
		resumeVector = vector
	}

	if err := s.ensureJobVector(ctx); err != nil {
		return MatchScore{}, err
	}

	similarity := CosineSimilarity(s.jobVector, resumeVector)
	score := int(math.Round(similarity * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return MatchScore{
		OverallScore:  score,
		EmbeddingUsed: bothNonZero(s.jobVector, resumeVector),
	}, nil
}

func (s *matchScorer) ensureJobVector(ctx context.Context) error {
	if len(s.jobVector) > 0 {
		return nil
	}
	vector, err := s.gemini.GenerateEmbedding(ctx, TruncateForPrompt(s.jobText, s.embedLimit))
	if err != nil {
		return fmt.Errorf("failed to embed job text: %w", err)
	}
	s.jobVector = vector
	return nil
}

// CosineSimilarity returns dot(a,b) / (||a||*||b||). A zero-norm vector on
// either side yields exactly 0, never NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func bothNonZero(a, b []float32) bool {
	return vectorNorm(a) > 0 && vectorNorm(b) > 0
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
