package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pustaka/library_service/generation"
	"pustaka/types"
)

// RegisterStreamRoutes registers the streaming generation endpoints. Both
// respond with text/event-stream bodies of "data: <json>" frames.
func RegisterStreamRoutes(r *gin.Engine, deps Deps) {
	r.POST("/api/summarize/stream", handleSummarizeStream(deps))
	r.POST("/api/synthesize/stream", handleSynthesizeStream(deps))
}

func handleSummarizeStream(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.GenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if len(req.Metadata) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "metadata with at least one verified source is required"})
			return
		}
		if req.APIKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "OpenRouter API Key is required"})
			return
		}

		emit := newFrameWriter(c)
		deps.Generator.Generate(c.Request.Context(), req, emit)
	}
}

func handleSynthesizeStream(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SynthesisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if len(req.VariantIDs) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "synthesis requires at least 2 variant ids"})
			return
		}
		if req.APIKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "OpenRouter API Key is required"})
			return
		}

		variants := make([]types.SummaryVariant, 0, len(req.VariantIDs))
		for _, id := range req.VariantIDs {
			_, variant, found, err := deps.Store.Variant(id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load variants"})
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("variant %s not found", id)})
				return
			}
			variants = append(variants, variant)
		}

		emit := newFrameWriter(c)
		deps.Generator.Synthesize(c.Request.Context(), req, variants, emit)
	}
}

// newFrameWriter returns an emitter that writes each frame as a
// "data: <json>" line and flushes it immediately.
func newFrameWriter(c *gin.Context) generation.Emitter {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	return func(f generation.Frame) error {
		payload, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}
}
