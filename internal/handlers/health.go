package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ai-scribe-server/internal/utils"
)

// HealthHandler answers the liveness probe.
type HealthHandler struct {
	DB *gorm.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{DB: db}
}

// Check pings the database and reports 200/healthy or 503/unhealthy.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
		utils.ServiceUnavailable(c, "Service unhealthy")
		return
	}

	utils.Success(c, "Service healthy", gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "ai-scribe-server",
	})
}
