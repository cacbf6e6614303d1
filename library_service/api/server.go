package api

import (
	"github.com/gin-gonic/gin"

	"pustaka/library_service/generation"
	"pustaka/library_service/storage"
	"pustaka/library_service/verification"
)

// Deps carries the service components the controllers operate on.
type Deps struct {
	Store     *storage.Store
	Verifier  *verification.Verifier
	Generator *generation.Generator
	Models    ModelLister
	CoversDir string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	// Cover images are served straight off disk.
	if deps.CoversDir != "" {
		r.Static("/covers", deps.CoversDir)
	}

	RegisterVerificationRoutes(r, deps)
	RegisterArchiveRoutes(r, deps)
	RegisterModelRoutes(r, deps)
	RegisterStreamRoutes(r, deps)
	RegisterHealthRoutes(r)
	return r
}

// RegisterHealthRoutes registers the liveness endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
