package api

import (
	"net/http"

	"amurex-backend/internal/auth/delivery"
	authUsecase "amurex-backend/internal/auth/usecase"
	docDelivery "amurex-backend/internal/document/delivery"
	docUsecase "amurex-backend/internal/document/usecase"
	emailDelivery "amurex-backend/internal/email/delivery"
	emailUsecase "amurex-backend/internal/email/usecase"
	transcriptDelivery "amurex-backend/internal/transcript/delivery"
	transcriptUsecase "amurex-backend/internal/transcript/usecase"
	"amurex-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, emailUc *emailUsecase.EmailUsecase, docUc *docUsecase.DocumentUsecase, transcriptUc *transcriptUsecase.TranscriptUsecase, cfg *config.Config) {
	authHandler := delivery.NewAuthHandler(authUc)
	emailHandler := emailDelivery.NewEmailHandler(emailUc)
	docHandler := docDelivery.NewDocumentHandler(docUc)
	transcriptHandler := transcriptDelivery.NewTranscriptHandler(transcriptUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
			auth.PUT("/preferences", delivery.AuthMiddleware(authUc), authHandler.UpdatePreferences)
			auth.DELETE("/account", delivery.AuthMiddleware(authUc), authHandler.DeleteAccount)
		}

		// Connection routes (protected)
		connect := api.Group("/connect")
		connect.Use(delivery.AuthMiddleware(authUc))
		{
			connect.GET("/google", authHandler.GoogleConnectURL)
			connect.POST("/google/callback", authHandler.GoogleConnectCallback)
			connect.GET("/notion", authHandler.NotionConnectURL)
			connect.POST("/notion/callback", authHandler.NotionConnectCallback)
		}

		// Email routes (protected)
		emails := api.Group("/emails")
		emails.Use(delivery.AuthMiddleware(authUc))
		{
			emails.POST("/import", emailHandler.Import)
			emails.GET("", emailHandler.List)
			emails.GET("/search", emailHandler.Search)
		}

		// Document routes (protected)
		documents := api.Group("/documents")
		documents.Use(delivery.AuthMiddleware(authUc))
		{
			documents.POST("/import/notion", docHandler.ImportNotion)
			documents.POST("/import/google-docs", docHandler.ImportGoogleDocs)
			documents.POST("/upload", docHandler.Upload)
			documents.GET("", docHandler.List)
			documents.GET("/search", docHandler.Search)
			documents.GET("/:id", docHandler.Get)
		}

		// Transcript routes (protected)
		transcripts := api.Group("/transcripts")
		transcripts.Use(delivery.AuthMiddleware(authUc))
		{
			transcripts.POST("", transcriptHandler.Upload)
			transcripts.GET("", transcriptHandler.List)
			transcripts.GET("/:meetingId", transcriptHandler.Get)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(delivery.AuthMiddleware(authUc))
		{
			search.POST("/emails", emailHandler.SemanticSearch)
			search.POST("/documents", docHandler.SemanticSearch)
		}

		// Scheduled import routes, guarded by the shared cron secret
		cron := api.Group("/cron")
		cron.Use(delivery.CronAuthMiddleware(cfg.CronSecret))
		{
			cron.POST("/emails", emailHandler.CronImport)
			cron.POST("/documents", docHandler.CronImportDocuments)
		}
	}
}
