package imageedit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mhpenta/imageedit/ratelimiter"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const testPayload = "aGVsbG8=" // "hello"

func TestEditor_RequestEdit(t *testing.T) {
	tests := []struct {
		name        string
		resp        *Response
		genErr      error
		wantPayload string
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name:        "image in first part",
			resp:        imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}, MIMEType: "image/png"}}),
			wantPayload: "AAAA",
		},
		{
			name: "image after text parts",
			resp: imageResponse(
				Part{Text: "Sure, here you go"},
				Part{InlineData: &Blob{Data: []byte("first"), MIMEType: "image/png"}},
				Part{InlineData: &Blob{Data: []byte("second"), MIMEType: "image/png"}},
			),
			wantPayload: "Zmlyc3Q=",
		},
		{
			name: "empty inline data is skipped",
			resp: imageResponse(
				Part{InlineData: &Blob{MIMEType: "image/png"}},
				Part{InlineData: &Blob{Data: []byte{0, 0, 0}, MIMEType: "image/png"}},
			),
			wantPayload: "AAAA",
		},
		{
			name: "blocked without image",
			resp: &Response{Candidates: []Candidate{{
				Parts: []Part{{Text: "I can't help with that"}},
				SafetyRatings: []SafetyRating{
					{Category: SafetyCategoryHarassment},
					{Category: SafetyCategoryDangerousContent, Blocked: true},
				},
			}}},
			wantKind:    KindSafetyBlocked,
			wantMessage: MsgSafetyBlocked,
		},
		{
			name: "image wins over blocked rating",
			resp: &Response{Candidates: []Candidate{{
				Parts:         []Part{{InlineData: &Blob{Data: []byte{0, 0, 0}}}},
				SafetyRatings: []SafetyRating{{Blocked: true}},
			}}},
			wantPayload: "AAAA",
		},
		{
			name: "image only in second candidate",
			resp: &Response{Candidates: []Candidate{
				{Parts: []Part{{Text: "no image here"}}},
				{Parts: []Part{{InlineData: &Blob{Data: []byte{0, 0, 0}, MIMEType: "image/png"}}}},
			}},
			wantKind:    KindNoImageReturned,
			wantMessage: MsgNoImageReturned,
		},
		{
			name: "blocked only in second candidate",
			resp: &Response{Candidates: []Candidate{
				{
					Parts:         []Part{{Text: "no image here"}},
					SafetyRatings: []SafetyRating{{Category: SafetyCategoryHarassment}},
				},
				{SafetyRatings: []SafetyRating{{Category: SafetyCategoryHarassment, Blocked: true}}},
			}},
			wantKind:    KindNoImageReturned,
			wantMessage: MsgNoImageReturned,
		},
		{
			name:        "text only",
			resp:        imageResponse(Part{Text: "Here is a description instead"}),
			wantKind:    KindNoImageReturned,
			wantMessage: MsgNoImageReturned,
		},
		{
			name:        "no candidates",
			resp:        &Response{},
			wantKind:    KindNoImageReturned,
			wantMessage: MsgNoImageReturned,
		},
		{
			name:        "nil response",
			resp:        nil,
			wantKind:    KindNoImageReturned,
			wantMessage: MsgNoImageReturned,
		},
		{
			name:        "remote failure",
			genErr:      errors.New("timeout"),
			wantKind:    KindRemoteCallFailure,
			wantMessage: "Failed to generate image: timeout",
		},
		{
			name:        "failure without message",
			genErr:      errors.New(""),
			wantKind:    KindUnknownFailure,
			wantMessage: MsgUnknownFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockGenerator{
				EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
					return tt.resp, tt.genErr
				},
			}
			editor := NewEditor(gen, WithLogger(discardLogger))

			payload, err := editor.RequestEdit(context.Background(), testPayload, "image/png", "add sunglasses")

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("RequestEdit() unexpected error: %v", err)
				}
				if payload != tt.wantPayload {
					t.Errorf("RequestEdit() = %q, want %q", payload, tt.wantPayload)
				}
				return
			}

			if err == nil {
				t.Fatalf("RequestEdit() expected %s error, got payload %q", tt.wantKind, payload)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("KindOf() = %q, want %q", KindOf(err), tt.wantKind)
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMessage)
			}
			if tt.genErr != nil && !errors.Is(err, tt.genErr) {
				t.Errorf("error should wrap the remote cause %v", tt.genErr)
			}
		})
	}
}

func TestEditor_RequestEdit_SendsRequest(t *testing.T) {
	var gotImage InputImage
	var gotInstruction string
	var gotConfig *EditConfig
	calls := 0

	gen := &MockGenerator{
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			calls++
			gotImage, gotInstruction, gotConfig = image, instruction, config
			return imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}}}), nil
		},
	}
	editor := NewEditor(gen, WithLogger(discardLogger))

	if _, err := editor.RequestEdit(context.Background(), testPayload, "image/jpeg", "make it night"); err != nil {
		t.Fatalf("RequestEdit() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly one remote call, got %d", calls)
	}
	if string(gotImage.Data) != "hello" || gotImage.MIMEType != "image/jpeg" {
		t.Errorf("image = {%q, %q}, want decoded payload and mime type", gotImage.Data, gotImage.MIMEType)
	}
	if gotInstruction != "make it night" {
		t.Errorf("instruction = %q", gotInstruction)
	}
	if gotConfig == nil || gotConfig.Model != "test-model-api" {
		t.Fatalf("config = %+v, want API model name", gotConfig)
	}
	if len(gotConfig.ResponseModalities) != 1 || gotConfig.ResponseModalities[0] != ModalityImage {
		t.Errorf("ResponseModalities = %v, want image only", gotConfig.ResponseModalities)
	}
}

func TestEditor_RequestEdit_InvalidPayload(t *testing.T) {
	gen := &MockGenerator{
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			t.Error("generator should not be called for an undecodable payload")
			return nil, nil
		},
	}
	editor := NewEditor(gen, WithLogger(discardLogger))

	_, err := editor.RequestEdit(context.Background(), "not base64!", "image/png", "x")
	if KindOf(err) != KindRemoteCallFailure {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindRemoteCallFailure)
	}
}

func TestEditor_WithTimeout(t *testing.T) {
	gen := &MockGenerator{
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	editor := NewEditor(gen, WithLogger(discardLogger), WithTimeout(10*time.Millisecond))

	_, err := editor.RequestEdit(context.Background(), testPayload, "image/png", "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to generate image: ") {
		t.Errorf("Error() = %q, want remote call failure message", err.Error())
	}
}

func TestEditor_WithModel(t *testing.T) {
	gen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return []ModelInfo{
				testModel(),
				{Name: "other-model", APIModelName: "other-model-api"},
			}
		},
	}

	tests := []struct {
		name string
		opt  Model
		want Model
	}{
		{name: "default is first model", opt: "", want: "test-model"},
		{name: "public name", opt: "other-model", want: "other-model"},
		{name: "api name resolves to public name", opt: "other-model-api", want: "other-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := NewEditor(gen, WithModel(tt.opt))
			if got := editor.Model(); got != tt.want {
				t.Errorf("Model() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEditor_UnknownModel(t *testing.T) {
	editor := NewEditor(&MockGenerator{}, WithLogger(discardLogger), WithModel("missing"))

	_, err := editor.RequestEdit(context.Background(), testPayload, "image/png", "x")
	if !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("expected ErrModelNotRegistered, got %v", err)
	}
	if KindOf(err) != KindRemoteCallFailure {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindRemoteCallFailure)
	}
}

func TestEditor_RateLimit(t *testing.T) {
	calls := 0
	gen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			m := testModel()
			m.RateLimits = RateLimits{
				TokensPerMinute:   100, // below the fixed image cost
				RequestsPerMinute: 10,
			}
			return []ModelInfo{m}
		},
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			calls++
			return imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}}}), nil
		},
	}
	editor := NewEditor(gen, WithLogger(discardLogger))
	ctx := context.Background()

	// "test prompt": ceil(11/4*1.2) + 3 + 258 = 265 tokens > 100
	_, err := editor.RequestEdit(ctx, testPayload, "image/png", "test prompt")
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if calls != 0 {
		t.Errorf("rate limited request reached the generator")
	}

	editor.SetRateLimiter("test-model", ratelimiter.New(1000, 10))

	payload, err := editor.RequestEdit(ctx, testPayload, "image/png", "test prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != "AAAA" {
		t.Errorf("payload = %q, want AAAA", payload)
	}
}

func TestEditor_WithRateLimiter(t *testing.T) {
	gen := &MockGenerator{
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			return imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}}}), nil
		},
	}
	editor := NewEditor(gen,
		WithLogger(discardLogger),
		WithModel("test-model-api"),
		WithRateLimiter(ratelimiter.New(0, 1)),
	)
	ctx := context.Background()

	if _, err := editor.RequestEdit(ctx, testPayload, "image/png", "x"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := editor.RequestEdit(ctx, testPayload, "image/png", "x"); !IsRateLimitError(err) {
		t.Errorf("second request: expected RateLimitError, got %v", err)
	}
}

func TestEditor_WithRateLimits(t *testing.T) {
	tests := []struct {
		name         string
		modelLimits  RateLimits
		override     RateLimits
		wantAdmitted int
	}{
		{
			name:         "tokens override keeps model request limit",
			modelLimits:  RateLimits{TokensPerMinute: 100, RequestsPerMinute: 1},
			override:     RateLimits{TokensPerMinute: 5000},
			wantAdmitted: 1,
		},
		{
			// "x" costs 262 tokens, so only one request fits in 300.
			name:         "requests override keeps model token limit",
			modelLimits:  RateLimits{TokensPerMinute: 300, RequestsPerMinute: 1},
			override:     RateLimits{RequestsPerMinute: 10},
			wantAdmitted: 1,
		},
		{
			name:         "both overridden",
			modelLimits:  RateLimits{TokensPerMinute: 100, RequestsPerMinute: 1},
			override:     RateLimits{TokensPerMinute: 5000, RequestsPerMinute: 10},
			wantAdmitted: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockGenerator{
				ModelsFunc: func() []ModelInfo {
					m := testModel()
					m.RateLimits = tt.modelLimits
					return []ModelInfo{m}
				},
				EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
					return imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}}}), nil
				},
			}
			editor := NewEditor(gen, WithLogger(discardLogger), WithRateLimits(tt.override))

			admitted := 0
			for i := 0; i < 3; i++ {
				_, err := editor.RequestEdit(context.Background(), testPayload, "image/png", "x")
				switch {
				case err == nil:
					admitted++
				case !IsRateLimitError(err):
					t.Fatalf("request %d: unexpected error %v", i, err)
				}
			}
			if admitted != tt.wantAdmitted {
				t.Errorf("admitted %d of 3 requests, want %d", admitted, tt.wantAdmitted)
			}
		})
	}
}

func TestEditor_Edit(t *testing.T) {
	gen := &MockGenerator{
		EditFunc: func(ctx context.Context, image InputImage, instruction string, config *EditConfig) (*Response, error) {
			return imageResponse(Part{InlineData: &Blob{Data: []byte{0, 0, 0}, MIMEType: "image/webp"}}), nil
		},
	}
	editor := NewEditor(gen, WithLogger(discardLogger))

	if _, err := editor.Edit(context.Background(), nil, "x"); !errors.Is(err, ErrNoImage) {
		t.Errorf("Edit(nil) error = %v, want ErrNoImage", err)
	}

	asset := &ImageAsset{Payload: testPayload, MIMEType: "image/png"}
	result, err := editor.Edit(context.Background(), asset, "x")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if result.DisplayURL != "data:image/png;base64,AAAA" {
		t.Errorf("DisplayURL = %q, want the original image's MIME type", result.DisplayURL)
	}
}

func TestEditor_Close(t *testing.T) {
	closeErr := errors.New("boom")
	editor := NewEditor(&MockGenerator{CloseFunc: func() error { return closeErr }})
	if err := editor.Close(); !errors.Is(err, closeErr) {
		t.Errorf("Close() error = %v, want wrapped %v", err, closeErr)
	}
}
