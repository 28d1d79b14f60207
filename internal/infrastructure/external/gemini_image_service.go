package external

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"tryon-studio/internal/domain/entities"
	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/repositories"
	"tryon-studio/internal/domain/valueobjects"
)

// tryOnInstruction is sent after the person and garment images.
const tryOnInstruction = "You are an expert in fashion and photo editing. " +
	"The first image shows a person and the second image shows a garment. " +
	"Remove the clothing the person is currently wearing in that area and realistically render the garment from the second image in its place. " +
	"Make the fit and drape look natural on the person's body. " +
	"Preserve the original background, lighting and shadows of the person's image so the result is consistent. " +
	"The output should be only the final image."

// Values shipped in example env files that mean "not configured".
var placeholderKeys = []string{"PLACEHOLDER_API_KEY", "YOUR_API_KEY", "<your-api-key>"}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type generatorResolver func(ctx context.Context) (contentGenerator, error)

// GeminiImageService talks to a Gemini image model. Each call is a single
// request and a single response, with no retry.
type GeminiImageService struct {
	credentials repositories.AIClientConfig
	resolve     generatorResolver
	logger      *zap.Logger
}

func NewGeminiImageService(
	credentials repositories.AIClientConfig,
	pool repositories.GenAIClientPool,
	logger *zap.Logger,
) *GeminiImageService {
	return newGeminiImageService(credentials, func(ctx context.Context) (contentGenerator, error) {
		client, err := pool.GetGenAIClient(ctx)
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	}, logger)
}

func newGeminiImageService(credentials repositories.AIClientConfig, resolve generatorResolver, logger *zap.Logger) *GeminiImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiImageService{
		credentials: credentials,
		resolve:     resolve,
		logger:      logger.Named("gemini"),
	}
}

var _ repositories.ImageGenerationService = (*GeminiImageService)(nil)

// ComposeTryOn sends both photos and the fixed try-on instruction. The output
// is not reproducible: identical inputs may yield different images.
func (s *GeminiImageService) ComposeTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.GenerationResult, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		imagePart(request.PersonImage()),
		imagePart(request.GarmentImage()),
		genai.NewPartFromText(tryOnInstruction),
	}

	return s.generate(ctx, request.ID(), request.Parameters(), parts)
}

// ApplyEdit sends one image with the user's instruction as the only text. Like
// ComposeTryOn it is not idempotent.
func (s *GeminiImageService) ApplyEdit(ctx context.Context, request *entities.EditRequest) (*entities.GenerationResult, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		imagePart(request.Image()),
		genai.NewPartFromText(request.Instruction()),
	}

	return s.generate(ctx, request.ID(), request.Parameters(), parts)
}

func (s *GeminiImageService) checkCredentials() error {
	if s.credentials.Backend == repositories.BackendVertexAI {
		if strings.TrimSpace(s.credentials.ProjectID) == "" {
			return errs.Configuration("PROJECT_ID is not set for the Vertex AI backend.")
		}
		return nil
	}

	key := strings.TrimSpace(s.credentials.APIKey)
	if key == "" {
		return errs.Configuration("GEMINI_API_KEY is not set.")
	}
	for _, placeholder := range placeholderKeys {
		if strings.EqualFold(key, placeholder) {
			return errs.Configuration("GEMINI_API_KEY still holds a placeholder value.")
		}
	}
	return nil
}

func (s *GeminiImageService) generate(
	ctx context.Context,
	requestID entities.RequestID,
	params *valueobjects.GenerationParameters,
	parts []*genai.Part,
) (*entities.GenerationResult, error) {
	if params == nil {
		params = valueobjects.DefaultGenerationParameters()
	}

	generator, err := s.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GenAI client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	s.logger.Info("GenerateContent",
		zap.String("requestID", string(requestID)),
		zap.String("model", params.Model()),
		zap.Int("partsCount", len(parts)))

	// multiple candidates are not supported by the image models
	resp, err := generator.GenerateContent(ctx, params.Model(), contents, generationConfig(params))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	image, text, err := extractImage(resp)
	if err != nil {
		s.logger.Warn("No image data in response",
			zap.String("requestID", string(requestID)),
			zap.String("responseText", text),
			zap.String("reason", blockReason(resp)))
		return nil, err
	}

	s.logger.Info("Received image",
		zap.String("requestID", string(requestID)),
		zap.String("mimeType", image.MediaType()),
		zap.Int("dataSize", image.Size()))

	return entities.NewGenerationResult(requestID, image, text), nil
}

func generationConfig(params *valueobjects.GenerationParameters) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		Temperature:        params.Temperature(),
		Seed:               params.Seed(),
	}
}

func imagePart(img *valueobjects.ImageData) *genai.Part {
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: img.MediaType(),
			Data:     img.Data(),
		},
	}
}

// extractImage returns the first part carrying inline image data. Part order
// is not fixed by the backend, so the whole sequence is searched; text parts
// are collected for logging only.
func extractImage(resp *genai.GenerateContentResponse) (*valueobjects.ImageData, string, error) {
	var text strings.Builder
	if resp == nil {
		return nil, "", errs.Extraction("Could not extract image from Gemini response.")
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mediaType := part.InlineData.MIMEType
				if mediaType == "" {
					mediaType = valueobjects.MediaTypePNG
				}
				img, err := valueobjects.NewImageData(part.InlineData.Data, mediaType)
				if err != nil {
					return nil, text.String(), fmt.Errorf("failed to create image data: %w", err)
				}
				return img, text.String(), nil
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	return nil, text.String(), errs.Extraction("Could not extract image from Gemini response.")
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return string(resp.PromptFeedback.BlockReason)
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.FinishReason != "" {
			return string(candidate.FinishReason)
		}
	}
	return ""
}
