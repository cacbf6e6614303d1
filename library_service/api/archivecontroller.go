package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pustaka/library_service/storage"
	"pustaka/types"
)

// RegisterArchiveRoutes registers the saved-brief CRUD endpoints.
func RegisterArchiveRoutes(r *gin.Engine, deps Deps) {
	r.GET("/api/saved", handleGetSaved(deps))
	r.POST("/api/save", handleSave(deps))
	r.DELETE("/api/saved/:id", handleDeleteVariant(deps))
	r.DELETE("/api/books/:id", handleDeleteBook(deps))
	r.PUT("/api/books/:id/cover", handleUpdateCover(deps))
	r.PUT("/api/books/:id/metadata", handleUpdateMetadata(deps))
	r.POST("/api/saved/:id/notes", handleAddNote(deps))
	r.PUT("/api/saved/:id/notes/:noteId", handleUpdateNote(deps))
	r.DELETE("/api/saved/:id/notes/:noteId", handleDeleteNote(deps))
}

func handleGetSaved(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		books, err := deps.Store.All()
		if err != nil {
			log.Printf("loading archive failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load archive"})
			return
		}
		c.JSON(http.StatusOK, books)
	}
}

// SaveRequest files a finished brief.
type SaveRequest struct {
	Title          string            `json:"title" binding:"required"`
	Author         string            `json:"author" binding:"required"`
	SummaryContent string            `json:"summary_content" binding:"required"`
	UsageStats     types.UsageStats  `json:"usage_stats"`
	Metadata       map[string]string `json:"metadata"`
}

func handleSave(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		variant, err := deps.Store.Save(storage.SaveInput{
			Title:          req.Title,
			Author:         req.Author,
			SummaryContent: req.SummaryContent,
			UsageStats:     req.UsageStats,
			Metadata:       req.Metadata,
		})
		if err != nil {
			log.Printf("saving brief failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to save brief"})
			return
		}
		c.JSON(http.StatusOK, variant)
	}
}

func handleDeleteVariant(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		found, err := deps.Store.DeleteVariant(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete brief"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Summary not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
	}
}

func handleDeleteBook(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		found, err := deps.Store.DeleteBook(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete book"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Book not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
	}
}

// CoverUpdateRequest points the book at a new cover image.
type CoverUpdateRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

func handleUpdateCover(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CoverUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		path, err := deps.Store.UpdateCover(c.Param("id"), req.ImageURL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to update cover"})
			return
		}
		if path == "" {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Book not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "image_url": path})
	}
}

// MetadataUpdateRequest edits a book's identity fields.
type MetadataUpdateRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author" binding:"required"`
	ISBN   string `json:"isbn"`
	Genre  string `json:"genre"`
}

func handleUpdateMetadata(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MetadataUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		book, err := deps.Store.UpdateMetadata(c.Param("id"), req.Title, req.Author, req.ISBN, req.Genre)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to update metadata"})
			return
		}
		if book == nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Book not found"})
			return
		}
		c.JSON(http.StatusOK, book)
	}
}

// NoteRequest carries the user-editable note fields.
type NoteRequest struct {
	Content string `json:"content" binding:"required"`
	Section string `json:"section"`
}

func handleAddNote(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		note, err := deps.Store.AddNote(c.Param("id"), types.Note{Content: req.Content, Section: req.Section})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to add note"})
			return
		}
		if note == nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Summary not found"})
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func handleUpdateNote(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		note, err := deps.Store.UpdateNote(c.Param("id"), c.Param("noteId"),
			types.Note{Content: req.Content, Section: req.Section})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to update note"})
			return
		}
		if note == nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Note not found"})
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func handleDeleteNote(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := deps.Store.DeleteNote(c.Param("id"), c.Param("noteId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete note"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Note not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
