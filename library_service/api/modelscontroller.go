package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ModelLister validates a provider key by listing its models.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}

// RegisterModelRoutes registers the provider key validation endpoint.
func RegisterModelRoutes(r *gin.Engine, deps Deps) {
	r.POST("/api/models", handleListModels(deps))
}

// ModelsRequest carries the key to validate.
type ModelsRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func handleListModels(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ModelsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		models, err := deps.Models.ListModels(c.Request.Context(), req.APIKey)
		if err != nil {
			log.Printf("model listing failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "provider rejected the API key"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "models": models})
	}
}
