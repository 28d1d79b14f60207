package entities

import (
	"time"

	"tryon-studio/internal/domain/valueobjects"
)

// GenerationResult is what one backend call produced: the first inline image
// and any text the model returned alongside it.
type GenerationResult struct {
	requestID RequestID
	image     *valueobjects.ImageData
	response  string
	createdAt time.Time
}

func NewGenerationResult(requestID RequestID, image *valueobjects.ImageData, response string) *GenerationResult {
	return &GenerationResult{
		requestID: requestID,
		image:     image,
		response:  response,
		createdAt: time.Now(),
	}
}

func (r *GenerationResult) RequestID() RequestID {
	return r.requestID
}

func (r *GenerationResult) Image() *valueobjects.ImageData {
	return r.image
}

func (r *GenerationResult) Response() string {
	return r.response
}

func (r *GenerationResult) CreatedAt() time.Time {
	return r.createdAt
}

func (r *GenerationResult) HasImage() bool {
	return r.image != nil
}
