package entities

import (
	"time"

	"github.com/google/uuid"

	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/valueobjects"
)

type RequestID string

func newRequestID(prefix string) RequestID {
	return RequestID(prefix + "_" + uuid.NewString())
}

// TryOnRequest asks the backend to dress the person image in the garment image.
type TryOnRequest struct {
	id           RequestID
	personImage  *valueobjects.ImageData
	garmentImage *valueobjects.ImageData
	parameters   *valueobjects.GenerationParameters
	createdAt    time.Time
}

func NewTryOnRequest(
	personImage *valueobjects.ImageData,
	garmentImage *valueobjects.ImageData,
	parameters *valueobjects.GenerationParameters,
) (*TryOnRequest, error) {
	if personImage == nil {
		return nil, errs.Validation("person image is required")
	}

	if garmentImage == nil {
		return nil, errs.Validation("garment image is required")
	}

	if parameters == nil {
		parameters = valueobjects.DefaultGenerationParameters()
	}

	return &TryOnRequest{
		id:           newRequestID("tryon"),
		personImage:  personImage,
		garmentImage: garmentImage,
		parameters:   parameters,
		createdAt:    time.Now(),
	}, nil
}

func (r *TryOnRequest) ID() RequestID {
	return r.id
}

func (r *TryOnRequest) PersonImage() *valueobjects.ImageData {
	return r.personImage
}

func (r *TryOnRequest) GarmentImage() *valueobjects.ImageData {
	return r.garmentImage
}

func (r *TryOnRequest) Parameters() *valueobjects.GenerationParameters {
	return r.parameters
}

func (r *TryOnRequest) CreatedAt() time.Time {
	return r.createdAt
}
