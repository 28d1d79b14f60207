package entities

import (
	"strings"
	"time"

	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/valueobjects"
)

// EditRequest applies a free-text instruction to a single image.
type EditRequest struct {
	id          RequestID
	image       *valueobjects.ImageData
	instruction string
	parameters  *valueobjects.GenerationParameters
	createdAt   time.Time
}

func NewEditRequest(
	image *valueobjects.ImageData,
	instruction string,
	parameters *valueobjects.GenerationParameters,
) (*EditRequest, error) {
	if image == nil {
		return nil, errs.Validation("image is required")
	}

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, errs.Validation("edit instruction is required")
	}

	if parameters == nil {
		parameters = valueobjects.DefaultGenerationParameters()
	}

	return &EditRequest{
		id:          newRequestID("edit"),
		image:       image,
		instruction: instruction,
		parameters:  parameters,
		createdAt:   time.Now(),
	}, nil
}

func (r *EditRequest) ID() RequestID {
	return r.id
}

func (r *EditRequest) Image() *valueobjects.ImageData {
	return r.image
}

func (r *EditRequest) Instruction() string {
	return r.instruction
}

func (r *EditRequest) Parameters() *valueobjects.GenerationParameters {
	return r.parameters
}

func (r *EditRequest) CreatedAt() time.Time {
	return r.createdAt
}
