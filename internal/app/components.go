// Package app assembles the try-on components from configuration.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"tryon-studio/internal/application/services"
	"tryon-studio/internal/application/usecases"
	"tryon-studio/internal/config"
	"tryon-studio/internal/domain/repositories"
	domainservices "tryon-studio/internal/domain/services"
	"tryon-studio/internal/domain/valueobjects"
	"tryon-studio/internal/infrastructure/external"
	infraservices "tryon-studio/internal/infrastructure/services"
)

// Components are the long-lived pieces shared by every session.
type Components struct {
	Config           *config.Config
	Logger           *zap.Logger
	Generator        repositories.ImageGenerationService
	Parameters       *valueobjects.GenerationParameters
	ParameterService *services.ParameterService

	pool repositories.GenAIClientPool
}

// NewComponents wires the generation stack. It does not contact the backend;
// the genai client is created on the first request.
func NewComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	parameterService := services.NewParameterService(cfg.Server.MaxUploadBytes)
	params, err := parameterService.FromConfig(cfg.Gemini)
	if err != nil {
		return nil, err
	}

	credentials := repositories.AIClientConfig{
		Backend:   repositories.Backend(cfg.Gemini.Backend),
		APIKey:    cfg.Gemini.APIKey,
		ProjectID: cfg.Gemini.ProjectID,
		Location:  cfg.Gemini.Location,
	}
	pool := infraservices.NewGenAIClientPool(credentials)
	adapter := external.NewGeminiImageService(credentials, pool, logger)

	return &Components{
		Config:           cfg,
		Logger:           logger,
		Generator:        domainservices.NewGenerationDomainService(adapter),
		Parameters:       params,
		ParameterService: parameterService,
		pool:             pool,
	}, nil
}

// NewController starts a fresh session over the shared generator.
func (c *Components) NewController(opts ...usecases.Option) *usecases.WorkflowController {
	base := []usecases.Option{
		usecases.WithLogger(c.Logger.Named("workflow")),
		usecases.WithParameters(c.Parameters),
		usecases.WithRequestTimeout(c.Config.Gemini.RequestTimeout),
	}
	return usecases.NewWorkflowController(c.Generator, append(base, opts...)...)
}

func (c *Components) Close() error {
	if err := c.pool.Close(); err != nil {
		return fmt.Errorf("failed to close client pool: %w", err)
	}
	return nil
}
