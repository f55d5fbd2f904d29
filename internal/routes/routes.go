package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ai-scribe-server/internal/ai"
	"ai-scribe-server/internal/handlers"
	"ai-scribe-server/internal/middleware"
	"ai-scribe-server/internal/services"
	"ai-scribe-server/internal/storage"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, store *storage.Store, aiClient ai.Client, log *zap.Logger) {
	// Initialize services and handlers
	patientService := services.NewPatientService(db)
	noteService := services.NewNoteService(db, store, aiClient, log)

	patientHandler := handlers.NewPatientHandler(patientService, log)
	noteHandler := handlers.NewNoteHandler(noteService, store, log)
	healthHandler := handlers.NewHealthHandler(db)

	api := router.Group("/api")
	{
		patientRoutes := api.Group("/patients")
		{
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.POST("", patientHandler.CreatePatient)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", patientHandler.DeletePatient)
		}

		noteRoutes := api.Group("/notes")
		{
			noteRoutes.GET("", noteHandler.GetNotes)

			// Audio streaming sits above /:id so the wildcard does not clash
			// with the id parameter.
			noteRoutes.GET("/audio/*filepath", noteHandler.ServeAudio)

			noteRoutes.GET("/:id", noteHandler.GetNoteByID)
			noteRoutes.POST("", middleware.AudioUpload("audioFile"), noteHandler.CreateNote)
			noteRoutes.POST("/upload", middleware.AudioUpload("audioFile"), noteHandler.UploadAudio)
			noteRoutes.PUT("/:id", noteHandler.UpdateNote)
			noteRoutes.DELETE("/:id", noteHandler.DeleteNote)
			noteRoutes.POST("/:id/process-ai", noteHandler.ProcessWithAI)
		}
	}

	// Liveness probe
	router.GET("/health", healthHandler.Check)
}
