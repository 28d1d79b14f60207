package repositories

import (
	"context"

	"tryon-studio/internal/domain/entities"
)

// ImageGenerationService is the external generative-image backend.
//
// Calls are not idempotent: the backend is a generative model and identical
// requests may produce different images.
type ImageGenerationService interface {
	// ComposeTryOn renders the garment onto the person.
	ComposeTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.GenerationResult, error)

	// ApplyEdit applies the request's instruction to its image.
	ApplyEdit(ctx context.Context, request *entities.EditRequest) (*entities.GenerationResult, error)
}
