package imageedit

import (
	"log/slog"
	"time"

	"github.com/mhpenta/imageedit/ratelimiter"
)

// EditorOption configures the Editor.
type EditorOption func(*Editor)

// WithLogger sets a structured logger for the editor.
func WithLogger(logger *slog.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithModel selects the model, by public name or API model name.
func WithModel(model Model) EditorOption {
	return func(e *Editor) {
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout bounds each remote call. Zero leaves calls unbounded.
func WithTimeout(timeout time.Duration) EditorOption {
	return func(e *Editor) {
		e.timeout = timeout
	}
}

// WithRateLimiter replaces the rate limiter of the selected model.
func WithRateLimiter(limiter ratelimiter.Limiter) EditorOption {
	return func(e *Editor) {
		e.customLimiter = limiter
	}
}

// WithRateLimits overrides the selected model's published rate limits.
// Zero fields keep the model's value; WithRateLimiter takes precedence.
func WithRateLimits(limits RateLimits) EditorOption {
	return func(e *Editor) {
		e.rateLimits = &limits
	}
}

// WithEditConfig sets the base request options (temperature, aspect ratio,
// safety settings). The model field is ignored; use WithModel.
func WithEditConfig(cfg *EditConfig) EditorOption {
	return func(e *Editor) {
		if cfg != nil {
			e.editConfig = cfg
		}
	}
}

// WithTokenEstimator replaces the estimator used for rate limiting.
func WithTokenEstimator(estimator TokenEstimator) EditorOption {
	return func(e *Editor) {
		e.tokenEstimator = estimator
	}
}
