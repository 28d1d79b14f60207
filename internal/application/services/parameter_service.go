package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"tryon-studio/internal/config"
	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/valueobjects"
)

// ErrUploadTooLarge is returned when a request body exceeds the upload limit.
var ErrUploadTooLarge = errors.New("upload exceeds the size limit")

// ImageField is the multipart field carrying an uploaded image.
const ImageField = "image"

// Upload is an image file taken from a multipart request. Close releases it.
type Upload struct {
	multipart.File
	MediaType string
	Filename  string
}

// ParameterService turns configuration and request bodies into the values the
// workflow controller accepts.
type ParameterService struct {
	maxUploadBytes int64
}

func NewParameterService(maxUploadBytes int64) *ParameterService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &ParameterService{maxUploadBytes: maxUploadBytes}
}

func (s *ParameterService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// FromConfig builds the generation parameters applied to every backend call.
func (s *ParameterService) FromConfig(cfg config.GeminiConfig) (*valueobjects.GenerationParameters, error) {
	params, err := valueobjects.NewGenerationParameters(cfg.Model, cfg.Temperature, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid generation parameters: %w", err)
	}
	return params, nil
}

// ParseImageUpload reads the image field of a multipart request. The media
// type is the one declared by the client for the part.
func (s *ParameterService) ParseImageUpload(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrUploadTooLarge
		}
		return nil, errs.Validation("request must be multipart/form-data")
	}

	file, header, err := r.FormFile(ImageField)
	if err != nil {
		return nil, errs.Validation("please choose an image file")
	}

	return &Upload{
		File:      file,
		MediaType: header.Header.Get("Content-Type"),
		Filename:  header.Filename,
	}, nil
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *ParameterService) ParseMode(r *http.Request) (valueobjects.WorkflowMode, error) {
	var req modeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		return "", err
	}
	mode, err := valueobjects.ParseWorkflowMode(strings.TrimSpace(req.Mode))
	if err != nil {
		return "", errs.Wrap(errs.KindValidation, "invalid mode", err)
	}
	return mode, nil
}

type editRequest struct {
	Instruction *string `json:"instruction"`
}

// ParseInstruction reads the edit instruction from a JSON body. ok is false
// when the body does not carry one, in which case the stored instruction is
// used.
func (s *ParameterService) ParseInstruction(r *http.Request) (instruction string, ok bool, err error) {
	if r.ContentLength == 0 {
		return "", false, nil
	}
	var req editRequest
	if err := s.decodeJSON(r, &req); err != nil {
		return "", false, err
	}
	if req.Instruction == nil {
		return "", false, nil
	}
	return *req.Instruction, true, nil
}

func (s *ParameterService) decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, 64<<10)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errs.Wrap(errs.KindValidation, "invalid JSON body", err)
	}
	return nil
}
