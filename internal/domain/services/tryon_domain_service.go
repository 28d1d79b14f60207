package services

import (
	"context"
	"fmt"
	"strings"

	"tryon-studio/internal/domain/entities"
	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/repositories"
)

// GenerationDomainService checks requests before they reach the backend and
// classifies what comes back.
type GenerationDomainService struct {
	aiService repositories.ImageGenerationService
}

func NewGenerationDomainService(aiService repositories.ImageGenerationService) *GenerationDomainService {
	return &GenerationDomainService{
		aiService: aiService,
	}
}

func (s *GenerationDomainService) ComposeTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.GenerationResult, error) {
	if err := s.validateTryOn(request); err != nil {
		return nil, err
	}

	result, err := s.aiService.ComposeTryOn(ctx, request)
	if err != nil {
		return nil, s.classify("try-on generation failed", err)
	}

	if result == nil || !result.HasImage() {
		return nil, errs.Extraction("no image generated")
	}

	return result, nil
}

func (s *GenerationDomainService) ApplyEdit(ctx context.Context, request *entities.EditRequest) (*entities.GenerationResult, error) {
	if err := s.validateEdit(request); err != nil {
		return nil, err
	}

	result, err := s.aiService.ApplyEdit(ctx, request)
	if err != nil {
		return nil, s.classify("image edit failed", err)
	}

	if result == nil || !result.HasImage() {
		return nil, errs.Extraction("no image generated")
	}

	return result, nil
}

func (s *GenerationDomainService) validateTryOn(request *entities.TryOnRequest) error {
	if request == nil {
		return errs.Validation("request is required")
	}

	if request.PersonImage() == nil {
		return errs.Validation("person image is required")
	}

	if request.GarmentImage() == nil {
		return errs.Validation("garment image is required")
	}

	return nil
}

func (s *GenerationDomainService) validateEdit(request *entities.EditRequest) error {
	if request == nil {
		return errs.Validation("request is required")
	}

	if request.Image() == nil {
		return errs.Validation("image is required")
	}

	if strings.TrimSpace(request.Instruction()) == "" {
		return errs.Validation("edit instruction is required")
	}

	return nil
}

func (s *GenerationDomainService) classify(action string, err error) error {
	if errs.IsKind(err, errs.KindConfiguration) || errs.IsKind(err, errs.KindExtraction) {
		return fmt.Errorf("%s: %w", action, err)
	}
	if isQuotaError(err) {
		return errs.Wrap(errs.KindUnavailable, "service temporarily unavailable due to high demand", err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "resourceexhausted") ||
		strings.Contains(errStr, "resource_exhausted")
}
