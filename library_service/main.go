package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"pustaka/library_service/api"
	"pustaka/library_service/generation"
	"pustaka/library_service/storage"
	"pustaka/library_service/verification"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	addr := ":8000"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	dataDir := getEnvOrDefault("PUSTAKA_DATA_DIR", "data")
	coversDir := getEnvOrDefault("PUSTAKA_COVERS_DIR", "covers")

	var bucket *storage.CoverBucket
	if name := os.Getenv("PUSTAKA_S3_BUCKET"); name != "" {
		var err error
		bucket, err = storage.NewCoverBucket(context.Background(), name, storage.S3Config{
			Region: os.Getenv("AWS_REGION"),
		})
		if err != nil {
			log.Printf("Warning: S3 cover mirror disabled: %v", err)
			bucket = nil
		} else {
			log.Printf("Mirroring covers to s3://%s/covers/", name)
		}
	}

	covers, err := storage.NewCoverManager(coversDir, bucket)
	if err != nil {
		log.Fatalf("Failed to initialize covers directory: %v", err)
	}
	store, err := storage.NewStore(dataDir, covers)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	cache := verification.NewCache(os.Getenv("REDIS_ADDR"))
	verifier := verification.NewVerifier(store, cache)
	generator := generation.NewGenerator(generation.NewDefaultEmbeddingsProvider())

	r := api.NewRouter(api.Deps{
		Store:     store,
		Verifier:  verifier,
		Generator: generator,
		Models:    generation.NewOpenRouterProvider("", ""),
		CoversDir: coversDir,
	})

	log.Printf("Starting library service on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  POST /api/verify")
	log.Println("  GET  /api/covers/search")
	log.Println("  GET  /api/saved")
	log.Println("  POST /api/save")
	log.Println("  DELETE /api/saved/:id")
	log.Println("  DELETE /api/books/:id")
	log.Println("  PUT  /api/books/:id/cover")
	log.Println("  PUT  /api/books/:id/metadata")
	log.Println("  POST /api/saved/:id/notes")
	log.Println("  PUT  /api/saved/:id/notes/:noteId")
	log.Println("  DELETE /api/saved/:id/notes/:noteId")
	log.Println("  POST /api/models")
	log.Println("  POST /api/summarize/stream")
	log.Println("  POST /api/synthesize/stream")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
