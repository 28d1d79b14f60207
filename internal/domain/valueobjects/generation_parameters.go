package valueobjects

import (
	"fmt"
	"strings"
)

const DefaultImageModel = "gemini-2.5-flash-image"

// GenerationParameters are the model settings applied to every backend call.
// Temperature and Seed are optional; nil leaves the backend default.
type GenerationParameters struct {
	model       string
	temperature *float32
	seed        *int32
}

func NewGenerationParameters(model string, temperature *float32, seed *int32) (*GenerationParameters, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultImageModel
	}

	if temperature != nil && (*temperature < 0 || *temperature > 2) {
		return nil, fmt.Errorf("temperature must be between 0 and 2, got %v", *temperature)
	}

	return &GenerationParameters{
		model:       model,
		temperature: temperature,
		seed:        seed,
	}, nil
}

func DefaultGenerationParameters() *GenerationParameters {
	params, _ := NewGenerationParameters(DefaultImageModel, nil, nil)
	return params
}

func (p *GenerationParameters) Model() string {
	return p.model
}

func (p *GenerationParameters) Temperature() *float32 {
	return p.temperature
}

func (p *GenerationParameters) Seed() *int32 {
	return p.seed
}
