// Package gemini provides an imageedit.Generator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// The API key is always taken from the ProviderConfig. An empty key is an
// error rather than a cue to read GOOGLE_API_KEY or GEMINI_API_KEY.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mhpenta/imageedit"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	// APIModelNanoBanana1 is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana1 = "gemini-2.5-flash-image"

	// APIModelNanoBanana2 is the actual API name for Gemini 3 Pro Image
	APIModelNanoBanana2 = "gemini-3-pro-image-preview"
)

// GeminiGenerator implements imageedit.Generator using Google's Gemini API.
type GeminiGenerator struct {
	client         *genai.Client
	safetySettings []*genai.SafetySetting
	mu             sync.RWMutex
}

var _ imageedit.Generator = (*GeminiGenerator)(nil)

// Option configures how the underlying genai client is built.
type Option func(*genai.ClientConfig)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = client
	}
}

// New creates a new GeminiGenerator from a ProviderConfig.
func New(ctx context.Context, config *imageedit.ProviderConfig, opts ...Option) (*GeminiGenerator, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", imageedit.ErrProviderNotConfigured)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
	}, nil
}

// NewWithAPIKey creates a generator with an API key for Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string, opts ...Option) (*GeminiGenerator, error) {
	return New(ctx, &imageedit.ProviderConfig{
		Provider: imageedit.ProviderGeminiAPI,
		APIKey:   apiKey,
	}, opts...)
}

// SetSafetySettings configures default safety settings for all requests.
// These can be overridden per-request via EditConfig.SafetySettings.
func (g *GeminiGenerator) SetSafetySettings(settings []imageedit.SafetySetting) *GeminiGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.safetySettings = convertSafetySettings(settings)
	return g
}

// Edit sends the image followed by the instruction in a single user turn.
// Errors from the API are returned as-is, except rate limit errors which
// become *imageedit.RateLimitError.
func (g *GeminiGenerator) Edit(ctx context.Context, image imageedit.InputImage, instruction string, config *imageedit.EditConfig) (*imageedit.Response, error) {
	if err := imageedit.ValidateInputImage(image); err != nil {
		return nil, err
	}

	if config == nil {
		config = imageedit.DefaultConfig()
	}

	modelName := g.resolveModel(config)

	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				Data:     image.Data,
				MIMEType: image.MIMEType,
			},
		},
		{Text: instruction},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, modelName, contents, g.buildGenerateContentConfig(config))
	if err != nil {
		return nil, checkRateLimitError(err, modelName)
	}

	return convertResponse(result), nil
}

// Models returns the model definitions supported by this provider.
// The first model (NanoBanana1) is the default.
func (g *GeminiGenerator) Models() []imageedit.ModelInfo {
	return []imageedit.ModelInfo{
		NanoBanana1Info,
		NanoBanana2Info,
	}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel determines which API model name to use.
func (g *GeminiGenerator) resolveModel(config *imageedit.EditConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	return APIModelNanoBanana1
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func (g *GeminiGenerator) buildGenerateContentConfig(config *imageedit.EditConfig) *genai.GenerateContentConfig {
	modalities := config.ResponseModalities
	if len(modalities) == 0 {
		modalities = []imageedit.Modality{imageedit.ModalityImage}
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: make([]string, 0, len(modalities)),
	}
	for _, m := range modalities {
		genConfig.ResponseModalities = append(genConfig.ResponseModalities, string(m))
	}

	if config.AspectRatio != imageedit.AspectRatioAuto {
		genConfig.ImageConfig = &genai.ImageConfig{
			AspectRatio: string(config.AspectRatio),
		}
	}

	if config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(*config.Temperature)
	}

	// Safety settings: per-request overrides provider defaults
	g.mu.RLock()
	defaults := g.safetySettings
	g.mu.RUnlock()

	if len(config.SafetySettings) > 0 {
		genConfig.SafetySettings = convertSafetySettings(config.SafetySettings)
	} else if len(defaults) > 0 {
		genConfig.SafetySettings = defaults
	}

	return genConfig
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []imageedit.SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// convertResponse maps a Gemini response onto imageedit.Response, keeping
// candidate and part order and the per-rating blocked flags.
func convertResponse(result *genai.GenerateContentResponse) *imageedit.Response {
	resp := &imageedit.Response{}
	if result == nil {
		return resp
	}

	for _, candidate := range result.Candidates {
		if candidate == nil {
			continue
		}

		c := imageedit.Candidate{
			FinishReason: string(candidate.FinishReason),
		}

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				p := imageedit.Part{Text: part.Text}
				if part.InlineData != nil {
					p.InlineData = &imageedit.Blob{
						Data:     part.InlineData.Data,
						MIMEType: part.InlineData.MIMEType,
					}
				}
				c.Parts = append(c.Parts, p)
			}
		}

		for _, rating := range candidate.SafetyRatings {
			if rating == nil {
				continue
			}
			c.SafetyRatings = append(c.SafetyRatings, imageedit.SafetyRating{
				Category:    imageedit.SafetyCategory(rating.Category),
				Probability: string(rating.Probability),
				Blocked:     rating.Blocked,
			})
		}

		resp.Candidates = append(resp.Candidates, c)
	}

	if result.UsageMetadata != nil {
		resp.UsageMetadata = &imageedit.UsageMetadata{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp
}

// checkRateLimitError checks if an error from the Gemini API is a rate limit error.
// If so, it wraps it in a RateLimitError for standardized handling; otherwise returns the original error.
func checkRateLimitError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	if apiErr.Code != http.StatusTooManyRequests && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return err
	}

	return &imageedit.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Model:      model,
		Err:        err,
	}
}
