package config

import "time"

// HTTP Client Constants
const (
	// JSONRequestTimeout bounds plain request/response calls to the service
	JSONRequestTimeout = 30 * time.Second

	// ArchiveCallTimeout bounds archive load/save/delete round trips
	ArchiveCallTimeout = 15 * time.Second

	// VerifyTimeout bounds a verification across both external catalogs
	VerifyTimeout = 30 * time.Second
)

// Streaming Constants
const (
	// StreamChunkSize is the read buffer size for the frame stream
	StreamChunkSize = 4096

	// UpdateBufferSize is the capacity of a session's update channel
	UpdateBufferSize = 512
)
