package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"hireloop/resume-matcher/internal/models"
)

// ResumeIndexService is the semantic index over resume embeddings. Every
// vector the matcher computes is upserted here so candidates can be searched
// across jobs; the index is supplemental and never the source of truth for a
// match score.
type ResumeIndexService interface {
	InitCollection() error
	UpsertResume(ctx context.Context, resumeID string, vector []float32, name, email, fileName string) error
	SearchCandidates(ctx context.Context, queryVector []float32, limit int) ([]models.CandidateSearchHit, error)
}

type resumeIndexService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewResumeIndexService(urlStr, apiKey, collectionName string, vectorSize uint64) (ResumeIndexService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &resumeIndexService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
	}, nil
}

// InitCollection implements ResumeIndexService.
func (q *resumeIndexService) InitCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Resume vector collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertResume implements ResumeIndexService. The resume id doubles as the
// point id, so re-indexing a resume replaces its previous vector.
func (q *resumeIndexService) UpsertResume(ctx context.Context, resumeID string, vector []float32, name, email, fileName string) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(resumeID),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"resume_id": resumeID,
			"name":      name,
			"email":     email,
			"file_name": fileName,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert resume vector: %w", err)
	}

	return nil
}

// SearchCandidates implements ResumeIndexService.
func (q *resumeIndexService) SearchCandidates(ctx context.Context, queryVector []float32, limit int) ([]models.CandidateSearchHit, error) {
	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search resume vectors: %w", err)
	}

	var hits []models.CandidateSearchHit
	for _, point := range searchResult {
		hit := models.CandidateSearchHit{Score: point.Score}

		payload := point.Payload
		if id, ok := payload["resume_id"]; ok {
			if val, ok := id.GetKind().(*qdrant.Value_StringValue); ok {
				hit.ResumeID = val.StringValue
			}
		}
		if name, ok := payload["name"]; ok {
			if val, ok := name.GetKind().(*qdrant.Value_StringValue); ok {
				hit.Name = val.StringValue
			}
		}
		if email, ok := payload["email"]; ok {
			if val, ok := email.GetKind().(*qdrant.Value_StringValue); ok {
				hit.Email = val.StringValue
			}
		}
		if fileName, ok := payload["file_name"]; ok {
			if val, ok := fileName.GetKind().(*qdrant.Value_StringValue); ok {
				hit.FileName = val.StringValue
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}
