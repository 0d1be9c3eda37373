package imageedit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/imageedit/ratelimiter"
	"github.com/samber/lo"
)

// ErrModelNotRegistered is returned when the selected model is not served by the generator.
var ErrModelNotRegistered = errors.New("model not registered")

// Editor turns an ingested image and a prompt into a single call to a
// Generator and unpacks the response into edited image data or a typed *Error.
type Editor struct {
	gen Generator

	// Model info (per model), registered from the generator
	modelInfo map[Model]*ModelInfo

	// Model used for every request; defaults to the generator's first model
	model Model

	// Rate limiting (per model)
	limiters      ratelimiter.RateLimiterRegistry
	customLimiter ratelimiter.Limiter

	// Partial override of the selected model's published limits
	rateLimits *RateLimits

	tokenEstimator TokenEstimator

	// Base request options; ResponseModalities defaults to image only
	editConfig *EditConfig

	// Bound on a single remote call; zero means no bound
	timeout time.Duration

	logger *slog.Logger

	mu sync.RWMutex
}

var _ EditRequester = (*Editor)(nil)

// NewEditor creates an Editor over gen with the given options.
//
// Example:
//
//	gen, err := gemini.NewWithAPIKey(ctx, apiKey)
//	if err != nil {
//	    return err
//	}
//	editor := imageedit.NewEditor(gen,
//	    imageedit.WithLogger(slog.Default()),
//	    imageedit.WithTimeout(2*time.Minute),
//	)
func NewEditor(gen Generator, opts ...EditorOption) *Editor {
	e := &Editor{
		gen:            gen,
		modelInfo:      make(map[Model]*ModelInfo),
		limiters:       ratelimiter.NewRateLimiterRegistry(),
		tokenEstimator: NewSimpleTokenEstimator(),
		editConfig:     DefaultConfig(),
		logger:         slog.Default(),
	}

	models := gen.Models()
	for i := range models {
		e.registerModel(&models[i])
	}
	if len(models) > 0 {
		e.model = Model(models[0].Name)
	}

	for _, opt := range opts {
		opt(e)
	}

	if info, err := e.resolveModel(e.model); err == nil {
		e.model = Model(info.Name)
		if e.rateLimits != nil {
			limits := mergeRateLimits(info.RateLimits, *e.rateLimits)
			e.limiters.Set(info.Name, ratelimiter.New(limits.TokensPerMinute, limits.RequestsPerMinute))
		}
	}
	if e.customLimiter != nil {
		e.limiters.Set(string(e.model), e.customLimiter)
	}

	return e
}

// registerModel records info and creates the default in-memory rate limiter
// from the model's rate limits, if it has any.
func (e *Editor) registerModel(info *ModelInfo) {
	e.modelInfo[Model(info.Name)] = info

	if info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0 {
		e.limiters.Set(info.Name, ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	}
}

// mergeRateLimits returns base with every non-zero field of override applied.
func mergeRateLimits(base, override RateLimits) RateLimits {
	if override.TokensPerMinute > 0 {
		base.TokensPerMinute = override.TokensPerMinute
	}
	if override.RequestsPerMinute > 0 {
		base.RequestsPerMinute = override.RequestsPerMinute
	}
	return base
}

// SetRateLimiter sets a custom rate limiter for a model.
func (e *Editor) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Editor {
	e.limiters.Set(string(model), limiter)
	return e
}

// SetLogger sets a structured logger for the editor.
func (e *Editor) SetLogger(logger *slog.Logger) *Editor {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger = logger
	return e
}

// Model returns the model used for requests.
func (e *Editor) Model() Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// RequestEdit sends payload (base64 image data, no data URL header), its MIME
// type and the edit instruction to the model in one call, and returns the
// base64 data of the first inline image in the first candidate.
//
// Every failure is an *Error: SafetyBlocked, NoImageReturned,
// RemoteCallFailure or UnknownFailure. The prompt is sent as given; callers
// trim and reject empty prompts.
func (e *Editor) RequestEdit(ctx context.Context, payload, mimeType, prompt string) (string, error) {
	e.mu.RLock()
	model := e.model
	logger := e.logger
	timeout := e.timeout
	e.mu.RUnlock()

	start := time.Now()

	logger.Debug("starting image edit",
		"model", string(model),
		"mime_type", mimeType,
		"instruction_length", len(prompt),
		"payload_size", len(payload),
	)

	result, err := e.requestEdit(ctx, model, timeout, payload, mimeType, prompt)
	duration := time.Since(start)

	if err != nil {
		var typed *Error
		if errors.As(err, &typed) {
			logger.Warn("edit returned no image",
				"model", string(model),
				"duration_ms", duration.Milliseconds(),
				"kind", string(typed.Kind),
			)
			return "", typed
		}

		logger.Error("edit failed",
			"model", string(model),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return "", wrapRemoteFailure(err)
	}

	logger.Info("edit completed",
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
	)

	return result, nil
}

// Edit runs RequestEdit for asset and builds the EditResult, whose MIME type
// is taken from the asset.
func (e *Editor) Edit(ctx context.Context, asset *ImageAsset, prompt string) (*EditResult, error) {
	if asset == nil {
		return nil, ErrNoImage
	}
	payload, err := e.RequestEdit(ctx, asset.Payload, asset.MIMEType, prompt)
	if err != nil {
		return nil, err
	}
	return NewEditResult(payload, asset.MIMEType), nil
}

// requestEdit performs the call. Untyped errors are remote call failures;
// *Error values come from response parsing.
func (e *Editor) requestEdit(ctx context.Context, model Model, timeout time.Duration, payload, mimeType, prompt string) (string, error) {
	info, err := e.resolveModel(model)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid image payload: %w", err)
	}

	if err := e.checkRateLimit(model, prompt); err != nil {
		return "", err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := e.gen.Edit(ctx, InputImage{Data: data, MIMEType: mimeType}, prompt, e.requestConfig(info))
	if err != nil {
		return "", err
	}

	return extractImage(resp)
}

// extractImage returns the base64 data of the first part of the first
// candidate that carries inline image data. Without one, a blocked safety
// rating yields SafetyBlocked; otherwise NoImageReturned.
func extractImage(resp *Response) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &Error{Kind: KindNoImageReturned, Message: MsgNoImageReturned}
	}
	candidate := resp.Candidates[0]

	part, found := lo.Find(candidate.Parts, func(p Part) bool {
		return p.InlineData != nil && len(p.InlineData.Data) > 0
	})
	if found {
		return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
	}

	blocked := lo.ContainsBy(candidate.SafetyRatings, func(r SafetyRating) bool {
		return r.Blocked
	})
	if blocked {
		return "", &Error{Kind: KindSafetyBlocked, Message: MsgSafetyBlocked}
	}

	return "", &Error{Kind: KindNoImageReturned, Message: MsgNoImageReturned}
}

// requestConfig copies the base config and points it at the model's API name.
func (e *Editor) requestConfig(info *ModelInfo) *EditConfig {
	cfg := e.editConfig.WithModel(Model(info.APIModelName))
	if len(cfg.ResponseModalities) == 0 {
		cfg.ResponseModalities = []Modality{ModalityImage}
	}
	return cfg
}

// checkRateLimit consumes the estimated cost of a request. It never waits.
func (e *Editor) checkRateLimit(model Model, prompt string) error {
	limiter, err := e.limiters.Get(string(model))
	if err != nil {
		// No limiter registered for this model.
		return nil
	}

	estimatedTokens := e.tokenEstimator.EstimateTokens(prompt)

	if !limiter.TryConsume(estimatedTokens) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  "tokens",
			Model:      string(model),
		}
	}

	return nil
}

func (e *Editor) resolveModel(model Model) (*ModelInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if info, ok := e.modelInfo[model]; ok {
		return info, nil
	}
	// Accept the provider's API model name as well as the public name.
	for _, info := range e.modelInfo {
		if info.APIModelName == string(model) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
}

// Models returns the model definitions served by the generator.
func (e *Editor) Models() []ModelInfo {
	return e.gen.Models()
}

// Close releases the generator's resources.
func (e *Editor) Close() error {
	if err := e.gen.Close(); err != nil {
		return fmt.Errorf("closing generator: %w", err)
	}
	return nil
}
