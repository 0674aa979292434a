package main

import (
	"context"
	"log"
	"os"
	"strings"

	"hireloop/resume-matcher/internal/config"
	"hireloop/resume-matcher/internal/repositories"
	"hireloop/resume-matcher/internal/services"
)

// Rebuilds the Qdrant index from the embeddings cached in Postgres. Useful
// after wiping the collection or pointing the service at a fresh Qdrant
// instance; no Gemini calls are made, cached vectors are reused as-is.
func main() {
	log.Println("🚀 Starting resume reindex...")

	// Load configuration
	cfg := config.Load()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	resumeRepo := repositories.NewResumeRepository(db)

	indexService, err := services.NewResumeIndexService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.Dimension,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := indexService.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	resumes, err := resumeRepo.FindEmbedded()
	if err != nil {
		log.Fatalf("❌ Failed to load resumes: %v", err)
	}
	log.Printf("📄 Found %d resume(s) with cached embeddings", len(resumes))

	ctx := context.Background()
	successCount := 0
	failCount := 0

	for i, resume := range resumes {
		vector := resume.EmbeddingVector()
		if len(vector) == 0 {
			log.Printf("   ⚠️  Resume %s has an unreadable embedding, skipping...", resume.ID)
			failCount++
			continue
		}

		err := indexService.UpsertResume(
			ctx,
			resume.ID.String(),
			vector,
			resume.CandidateName,
			resume.CandidateEmail,
			resume.OriginalFileName,
		)
		if err != nil {
			log.Printf("   ❌ Failed to index resume %s: %v", resume.ID, err)
			failCount++
			continue
		}

		successCount++
		if (i+1)%25 == 0 || i == len(resumes)-1 {
			log.Printf("   📊 Progress: %d/%d resumes indexed", i+1, len(resumes))
		}
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Reindex Summary:")
	log.Printf("   ✅ Successful: %d resumes", successCount)
	log.Printf("   ❌ Failed: %d resumes", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some resumes failed to index. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ All resumes reindexed successfully!")
}
