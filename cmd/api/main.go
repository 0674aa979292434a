package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"hireloop/resume-matcher/internal/config"
	"hireloop/resume-matcher/internal/handlers"
	"hireloop/resume-matcher/internal/repositories"
	"hireloop/resume-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jobRepo := repositories.NewJobRepository(db)
	resumeRepo := repositories.NewResumeRepository(db)
	matchRepo := repositories.NewMatchRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	fileValidator := services.NewFileValidator(cfg.Storage.MinFileSize, cfg.Storage.MaxFileSize)
	pdfParser := services.NewPDFParserService()
	textExtractor := services.NewTextExtractor(pdfParser)
	log.Println("✅ Services initialized successfully")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		cfg.Pipeline.EmbedInputLimit,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize Qdrant
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
		log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
	}
	log.Println("✅ Qdrant initialized successfully")

	// Initialize the batch pipeline
	profileExtractor := services.NewProfileExtractor(
		geminiService,
		cfg.Pipeline.ProfileInputLimit,
		cfg.Gemini.MaxRetries,
	)
	scorerFactory := services.NewScorerFactory(geminiService, cfg.Pipeline.EmbedInputLimit)
	groupRunner := services.NewGroupRunner(cfg.Pipeline.GroupSize, cfg.Pipeline.GroupPause)

	orchestrator := services.NewBatchOrchestrator(
		fileValidator,
		textExtractor,
		profileExtractor,
		scorerFactory,
		jobRepo,
		resumeRepo,
		matchRepo,
		indexService,
		storageService,
		groupRunner,
	)
	log.Println("✅ Batch orchestrator initialized")

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(
		orchestrator,
		storageService,
		cfg.Pipeline.MaxBatchFiles,
	)
	matchHandler := handlers.NewMatchHandler(
		jobRepo,
		matchRepo,
		geminiService,
		indexService,
	)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * cfg.Pipeline.MaxBatchFiles,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Account-ID",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/resumes/batch", uploadHandler.HandleBatchUpload)
	api.Post("/resumes", uploadHandler.HandleSingleUpload)
	api.Get("/jobs/:id/matches", matchHandler.HandleJobMatches)
	api.Post("/candidates/search", matchHandler.HandleCandidateSearch)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/resumes/batch",
				"POST /api/v1/resumes",
				"GET /api/v1/jobs/:id/matches",
				"POST /api/v1/candidates/search",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
