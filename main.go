package main

import (
	"log"

	api "amurex-backend/cmd/api"
	authdomain "amurex-backend/internal/auth/domain"
	authRepo "amurex-backend/internal/auth/repository"
	authUsecase "amurex-backend/internal/auth/usecase"
	docdomain "amurex-backend/internal/document/domain"
	docRepo "amurex-backend/internal/document/repository"
	docUsecase "amurex-backend/internal/document/usecase"
	emaildomain "amurex-backend/internal/email/domain"
	emailRepo "amurex-backend/internal/email/repository"
	emailUsecase "amurex-backend/internal/email/usecase"
	transcriptdomain "amurex-backend/internal/transcript/domain"
	transcriptRepo "amurex-backend/internal/transcript/repository"
	transcriptUsecase "amurex-backend/internal/transcript/usecase"
	"amurex-backend/pkg/ai"
	"amurex-backend/pkg/config"
	"amurex-backend/pkg/database"
	"amurex-backend/pkg/gdocs"
	"amurex-backend/pkg/gmail"
	"amurex-backend/pkg/notion"
	"amurex-backend/pkg/resend"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.GoogleClient{},
		&emaildomain.Email{},
		&docdomain.Document{},
		&transcriptdomain.Transcript{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	emailRepository := emailRepo.NewEmailRepository(db)
	documentRepository := docRepo.NewDocumentRepository(db)
	transcriptRepository := transcriptRepo.NewTranscriptRepository(db)

	// Initialize external service clients
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, userRepo)
	notionService := notion.NewService(cfg.NotionClientID, cfg.NotionClientSecret, cfg.NotionRedirectURI)
	gdocsService := gdocs.NewService()

	// Initialize AI services
	chatKey := cfg.OpenAIApiKey
	if ai.ProviderType(cfg.AIProvider) == ai.ProviderGroq {
		chatKey = cfg.GroqApiKey
	}
	chatService, err := ai.NewChatService(ai.ProviderType(cfg.AIProvider), chatKey, cfg.ChatModel)
	if err != nil {
		log.Fatal("Failed to initialize AI chat service:", err)
	}
	log.Printf("AI chat service initialized with provider: %s", cfg.AIProvider)

	// Embeddings always go through OpenAI; Groq has no embeddings endpoint
	var embedder *ai.Embedder
	if cfg.OpenAIApiKey != "" {
		embedder = ai.NewEmbedder(ai.NewEmbeddingService(cfg.OpenAIApiKey, cfg.EmbeddingModel))
	} else {
		log.Println("[WARN] OPENAI_API_KEY not set, embeddings and semantic search disabled")
	}

	var notifier authUsecase.Notifier
	if cfg.ResendApiKey != "" {
		notifier = resend.NewClient(cfg.ResendApiKey, cfg.NotifyFromEmail)
	} else {
		log.Println("[WARN] RESEND_API_KEY not set, account email disabled")
	}

	// Start the background transcript summarizer
	summaryWorker := transcriptUsecase.NewSummaryWorkerService(transcriptRepository, chatService, 3)
	summaryWorker.Start()
	defer summaryWorker.Stop()

	// Initialize use cases (dependency injection)
	categorizer := emailUsecase.NewCategorizer(chatService)
	tagger := docUsecase.NewTagger(chatService)

	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, emailRepository, documentRepository, transcriptRepository, gmailService, notionService, notifier, cfg)
	emailUsecaseInstance := emailUsecase.NewEmailUsecase(userRepo, emailRepository, gmailService, categorizer, embedder)
	docUsecaseInstance := docUsecase.NewDocumentUsecase(userRepo, documentRepository, notionService, gdocsService, gmailService, tagger, embedder)
	transcriptUsecaseInstance := transcriptUsecase.NewTranscriptUsecase(transcriptRepository, summaryWorker)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, emailUsecaseInstance, docUsecaseInstance, transcriptUsecaseInstance, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
