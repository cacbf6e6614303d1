package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CoverManager downloads cover images into a local directory and, when a
// bucket is configured, mirrors them to S3.
type CoverManager struct {
	dir    string
	client *http.Client
	bucket *CoverBucket
}

// NewCoverManager creates the covers directory if needed. bucket may be nil.
func NewCoverManager(dir string, bucket *CoverBucket) (*CoverManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}
	return &CoverManager{
		dir:    dir,
		client: &http.Client{Timeout: 10 * time.Second},
		bucket: bucket,
	}, nil
}

// Dir returns the local covers directory, for static file serving.
func (m *CoverManager) Dir() string { return m.dir }

// Fetch downloads the cover at url and stores it as <bookID>.jpg, returning
// the relative path "covers/<bookID>.jpg". On any failure the original URL
// is returned unchanged so the client still has something to render.
func (m *CoverManager) Fetch(url, bookID string) string {
	if !strings.HasPrefix(url, "http") {
		return url
	}

	resp, err := m.client.Get(url)
	if err != nil {
		log.Printf("cover download failed for %s: %v", url, err)
		return url
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("cover download failed for %s: status %d", url, resp.StatusCode)
		return url
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		log.Printf("cover download failed for %s: %v", url, err)
		return url
	}

	filename := bookID + ".jpg"
	if err := os.WriteFile(filepath.Join(m.dir, filename), data, 0o644); err != nil {
		log.Printf("cover write failed for %s: %v", filename, err)
		return url
	}

	if m.bucket != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.bucket.Put(ctx, filename, bytes.NewReader(data), "image/jpeg"); err != nil {
			// Local copy is canonical; the mirror is best effort.
			log.Printf("cover mirror to S3 failed for %s: %v", filename, err)
		}
	}

	return "covers/" + filename
}
