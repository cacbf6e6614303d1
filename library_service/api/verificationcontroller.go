package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pustaka/library_service/verification"
)

// RegisterVerificationRoutes registers book verification endpoints.
func RegisterVerificationRoutes(r *gin.Engine, deps Deps) {
	r.POST("/api/verify", handleVerify(deps))
	r.GET("/api/covers/search", handleCoverSearch(deps))
}

// VerifyRequest identifies the book to check. Any subset of fields may be
// supplied; ISBN alone is enough.
type VerifyRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func handleVerify(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if req.ISBN == "" && req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "isbn or title is required"})
			return
		}
		result := deps.Verifier.Verify(c.Request.Context(), req.ISBN, req.Title, req.Author)
		c.JSON(http.StatusOK, result)
	}
}

func handleCoverSearch(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("query")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "query is required"})
			return
		}
		hits := deps.Verifier.SearchCovers(c.Request.Context(), query)
		if hits == nil {
			hits = []verification.CoverHit{}
		}
		c.JSON(http.StatusOK, hits)
	}
}
