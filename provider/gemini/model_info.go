package gemini

import "github.com/mhpenta/imageedit"

var supportedAspectRatios = []imageedit.AspectRatio{
	imageedit.AspectRatio1x1,
	imageedit.AspectRatio16x9,
	imageedit.AspectRatio9x16,
	imageedit.AspectRatio4x3,
	imageedit.AspectRatio3x4,
}

// NanoBanana1Info is the model info for Gemini 2.5 Flash Image (nano-banana-1),
// the default editing model.
var NanoBanana1Info = imageedit.ModelInfo{
	Name:         "nano-banana-1",
	Provider:     imageedit.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana1,

	Capabilities: imageedit.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsSafetyConfig: true,
		MaxInputImages:       3,
		MaxOutputImages:      1,
	},

	SupportedAspectRatios: supportedAspectRatios,

	RateLimits: imageedit.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},

	Pricing: imageedit.Pricing{
		InputTokensPerMillion:  0.30,
		OutputTokensPerMillion: 30.00,
	},
}

// NanoBanana2Info is the model info for Gemini 3 Pro Image (nano-banana-2).
var NanoBanana2Info = imageedit.ModelInfo{
	Name:         "nano-banana-2",
	Provider:     imageedit.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana2,

	Capabilities: imageedit.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsSafetyConfig: true,
		MaxInputImages:       14,
		MaxOutputImages:      1,
	},

	SupportedAspectRatios: supportedAspectRatios,

	RateLimits: imageedit.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 360,
	},

	// Prompts over 200K tokens are billed at double these rates.
	Pricing: imageedit.Pricing{
		InputTokensPerMillion:  2.00,
		OutputTokensPerMillion: 12.00,
	},
}
