package imageedit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// State is the position of a Session in the upload → edit → display cycle.
type State int

const (
	// StateIdle has no image loaded.
	StateIdle State = iota

	// StateHasOriginal has an image loaded and no edited result.
	StateHasOriginal

	// StateGenerating has an edit request in flight.
	StateGenerating

	// StateHasEdited has an image and the result of its last edit.
	StateHasEdited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHasOriginal:
		return "has-original"
	case StateGenerating:
		return "generating"
	case StateHasEdited:
		return "has-edited"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of a Session's visible state.
type Snapshot struct {
	State  State
	Asset  *ImageAsset
	Result *EditResult
	Prompt string

	// Error is the message of the pending error, or "" if there is none.
	Error string

	// Busy reports whether an edit request is still outstanding. It can be
	// true outside StateGenerating when the image was replaced or cleared
	// while the request was running.
	Busy bool
}

// Session sequences one image through ingestion and editing. It holds at most
// one ImageAsset and one EditResult, and allows at most one edit in flight.
type Session struct {
	editor EditRequester
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	asset    *ImageAsset
	result   *EditResult
	prompt   string
	err      error
	inFlight bool

	// generation changes whenever the asset is replaced or cleared, so an
	// edit that resolves afterwards can tell its result is stale.
	generation uint64
}

// NewSession returns an idle Session that sends edits to editor.
func NewSession(editor EditRequester) *Session {
	return &Session{
		editor: editor,
		logger: slog.Default(),
	}
}

// SetLogger sets a structured logger for the session.
func (s *Session) SetLogger(logger *slog.Logger) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger = logger
	return s
}

// Open ingests f and makes it the session's image, discarding any previous
// image and result. On failure the error is recorded and the session keeps
// whatever image it had.
func (s *Session) Open(ctx context.Context, f File) error {
	s.mu.Lock()
	s.err = nil
	logger := s.logger
	s.mu.Unlock()

	asset, err := Ingest(ctx, f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logger.Warn("image ingestion failed",
			"file", f.Name(),
			"error", err.Error(),
		)
		s.err = err
		return err
	}

	s.generation++
	s.asset = asset
	s.result = nil
	s.state = StateHasOriginal

	logger.Debug("image loaded",
		"file", asset.Name,
		"mime_type", asset.MIMEType,
		"payload_size", len(asset.Payload),
	)

	return nil
}

// SetPrompt sets the edit instruction used by the next Submit.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

// Submit sends the current image and trimmed prompt to the editor and waits
// for the outcome.
//
// It returns ErrNoImage without an image, ErrEditInFlight while another edit
// is outstanding and ErrEmptyPrompt for a blank prompt; none of these change
// the session. Otherwise the previous result and error are cleared and the
// session is Generating until the edit resolves: HasEdited on success, or
// HasOriginal with the error recorded on failure. An outcome that resolves
// after the image was replaced or cleared is discarded.
func (s *Session) Submit(ctx context.Context) error {
	req, err := s.begin()
	if err != nil {
		return err
	}
	return s.run(ctx, req)
}

// SubmitAsync is Submit with the edit running in its own goroutine. Guard
// errors are returned directly; otherwise the session is already Generating
// when SubmitAsync returns, and the channel receives the outcome once and is
// then closed.
func (s *Session) SubmitAsync(ctx context.Context) (<-chan error, error) {
	req, err := s.begin()
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.run(ctx, req)
	}()
	return done, nil
}

// editRequest is what begin captures for one edit.
type editRequest struct {
	asset      *ImageAsset
	prompt     string
	generation uint64
	logger     *slog.Logger
}

// begin checks the submit guards and moves the session to Generating.
func (s *Session) begin() (editRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.asset == nil {
		return editRequest{}, ErrNoImage
	}
	if s.inFlight {
		return editRequest{}, ErrEditInFlight
	}
	prompt := strings.TrimSpace(s.prompt)
	if err := ValidatePrompt(prompt); err != nil {
		return editRequest{}, err
	}

	s.result = nil
	s.err = nil
	s.state = StateGenerating
	s.inFlight = true

	return editRequest{
		asset:      s.asset,
		prompt:     prompt,
		generation: s.generation,
		logger:     s.logger,
	}, nil
}

// run performs the request without holding the lock and applies its outcome.
func (s *Session) run(ctx context.Context, req editRequest) error {
	payload, err := s.editor.RequestEdit(ctx, req.asset.Payload, req.asset.MIMEType, req.prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false

	if req.generation != s.generation {
		req.logger.Debug("discarding edit for replaced image",
			"state", s.state.String(),
		)
		return err
	}

	if err != nil {
		s.err = err
		s.state = StateHasOriginal
		return err
	}

	s.result = NewEditResult(payload, req.asset.MIMEType)
	s.state = StateHasEdited
	return nil
}

// Clear returns the session to Idle, discarding image, result, prompt and
// error. An edit still in flight will be discarded when it resolves.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateIdle
	s.asset = nil
	s.result = nil
	s.prompt = ""
	s.err = nil
}

// DismissError drops the pending error.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Err returns the pending error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a consistent copy of the session's visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:  s.state,
		Asset:  s.asset,
		Result: s.result,
		Prompt: s.prompt,
		Busy:   s.inFlight,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// SaveResult writes the current edit result to storage under dir.
func (s *Session) SaveResult(ctx context.Context, storage Storage, dir string) (*StorageResult, error) {
	s.mu.Lock()
	result := s.result
	s.mu.Unlock()

	if result == nil {
		return nil, ErrNoResult
	}
	return SaveToStorage(ctx, storage, result, dir)
}
