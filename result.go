package imageedit

// SafetyCategory represents a content safety category.
type SafetyCategory string

const (
	SafetyCategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	SafetyCategoryHateSpeech       SafetyCategory = "HARM_CATEGORY_HATE_SPEECH"
	SafetyCategorySexuallyExplicit SafetyCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	SafetyCategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// SafetyThreshold represents the blocking threshold for safety filters.
type SafetyThreshold string

const (
	SafetyThresholdBlockNone      SafetyThreshold = "BLOCK_NONE"
	SafetyThresholdBlockLowAndUp  SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyThresholdBlockMedAndUp  SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThresholdBlockHighAndUp SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// SafetySetting configures content filtering for a specific category.
type SafetySetting struct {
	Category  SafetyCategory
	Threshold SafetyThreshold
}

// Response is a provider-neutral view of a model response.
type Response struct {
	// Candidates are the alternative responses, in the order the model returned them.
	Candidates []Candidate

	UsageMetadata *UsageMetadata
}

// Candidate is one alternative response produced by the model.
type Candidate struct {
	Parts         []Part
	SafetyRatings []SafetyRating
	FinishReason  string
}

// Part is one piece of candidate content. At most one of Text and InlineData is set.
type Part struct {
	Text       string
	InlineData *Blob
}

// Blob is inline binary data.
type Blob struct {
	Data     []byte
	MIMEType string
}

// SafetyRating is a per-category safety verdict on a candidate.
type SafetyRating struct {
	Category    SafetyCategory
	Probability string

	// Blocked reports whether the content was blocked because of this rating.
	Blocked bool
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
}
