package services

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"tryon-studio/internal/domain/repositories"
)

type genAIClientPool struct {
	config repositories.AIClientConfig
	client *genai.Client
	mutex  sync.RWMutex
}

// NewGenAIClientPool returns a pool that creates its client on first use.
func NewGenAIClientPool(config repositories.AIClientConfig) repositories.GenAIClientPool {
	return &genAIClientPool{
		config: config,
	}
}

func (p *genAIClientPool) GetGenAIClient(ctx context.Context) (*genai.Client, error) {
	p.mutex.RLock()
	if p.client != nil {
		defer p.mutex.RUnlock()
		return p.client, nil
	}
	p.mutex.RUnlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// double-checked
	if p.client != nil {
		return p.client, nil
	}

	client, err := genai.NewClient(ctx, clientConfig(p.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	p.client = client
	return p.client, nil
}

func (p *genAIClientPool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// genai clients hold no resources that need releasing
	p.client = nil
	return nil
}

func clientConfig(cfg repositories.AIClientConfig) *genai.ClientConfig {
	if cfg.Backend == repositories.BackendVertexAI {
		return &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.ProjectID,
			Location: cfg.Location,
		}
	}
	return &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	}
}
