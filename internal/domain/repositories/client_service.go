package repositories

import (
	"context"

	"google.golang.org/genai"
)

type Backend string

const (
	BackendGeminiAPI Backend = "gemini"
	BackendVertexAI  Backend = "vertex"
)

// AIClientConfig selects and authenticates the genai backend.
type AIClientConfig struct {
	Backend   Backend
	APIKey    string
	ProjectID string
	Location  string
}

// GenAIClientPool hands out a lazily created, shared genai client.
type GenAIClientPool interface {
	GetGenAIClient(ctx context.Context) (*genai.Client, error)

	Close() error
}
