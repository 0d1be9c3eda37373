package imageedit

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderGeminiAPI Provider = "gemini"
)

// ProviderConfig configures a specific provider. Credentials are always
// passed explicitly; providers never read them from the environment.
type ProviderConfig struct {
	// Provider type
	Provider Provider

	// APIKey for authentication
	APIKey string

	// BaseURL for custom endpoints (optional)
	BaseURL string
}

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsImageEditing bool
	SupportsSafetyConfig bool

	// Limits
	MaxInputImages  int // Max images per request
	MaxOutputImages int // Max images generated per request
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// Pricing defines cost information for a model.
type Pricing struct {
	InputTokensPerMillion  float64
	OutputTokensPerMillion float64
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "nano-banana-1")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "gemini-2.5-flash-image")

	Capabilities ModelCapabilities

	SupportedAspectRatios []AspectRatio

	RateLimits RateLimits

	Pricing Pricing
}
