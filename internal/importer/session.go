package importer

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/annotlab/sheetmap/internal/mapping"
)

// State tracks the two-phase protocol for one mapping session.
type State int

const (
	StateIdle State = iota
	StatePreviewRequested
	StatePreviewed
	StateConfirmRequested
	StateConfirmed
)

// String returns the state name for status lines.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreviewRequested:
		return "Previewing"
	case StatePreviewed:
		return "Previewed"
	case StateConfirmRequested:
		return "Confirming"
	case StateConfirmed:
		return "Confirmed"
	default:
		return "Unknown"
	}
}

// ErrNoRows is returned when there is nothing to send; no network call is
// issued.
var ErrNoRows = errors.New("no rows to import")

// Session drives preview/confirm for one sheet + mapping pair. Preview is
// re-entrant; a source-file replacement resets the session to Idle. All
// calls happen from a single dispatch context; only the sequence counter is
// touched from async callbacks.
type Session struct {
	client    *Client
	projectID int
	model     *mapping.Model
	state     State
	seq       atomic.Uint64

	// LastPreview is the most recent successful preview response.
	LastPreview *PreviewResponse
}

// NewSession creates a session bound to a mapping model. Preview responses
// reconcile server-side suggestions back into that model.
func NewSession(client *Client, projectID int, model *mapping.Model) *Session {
	return &Session{client: client, projectID: projectID, model: model}
}

// State returns the current protocol state.
func (s *Session) State() State { return s.state }

// ProjectID returns the target project.
func (s *Session) ProjectID() int { return s.projectID }

// NextSeq issues a monotonically increasing request token. Callers stamp
// async responses with it and discard any response older than Seq().
func (s *Session) NextSeq() uint64 { return s.seq.Add(1) }

// Seq returns the most recently issued token.
func (s *Session) Seq() uint64 { return s.seq.Load() }

// Reset returns the session to Idle, dropping preview state. Called when the
// source file is replaced.
func (s *Session) Reset() {
	s.state = StateIdle
	s.LastPreview = nil
	s.seq.Add(1) // orphan any in-flight response
}

// RunPreview sends rows and an optional mapping config for a dry-run pass.
// On success the server's suggested mapping overwrites the model's current
// choices and the resolved sheet name is remembered for compilation. Errors
// are already user-facing messages.
func (s *Session) RunPreview(ctx context.Context, records []map[string]any, cfg *mapping.Config) (*PreviewResponse, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	s.state = StatePreviewRequested
	resp, err := s.client.Preview(ctx, PreviewRequest{
		ProjectID:     s.projectID,
		MappingConfig: cfg,
		Rows:          records,
	})
	if err != nil {
		if s.state == StatePreviewRequested {
			s.state = StateIdle
		}
		return nil, err
	}

	s.state = StatePreviewed
	s.LastPreview = resp
	if resp.SuggestedMapping != nil {
		s.model.ApplySuggestion(resp.SuggestedMapping)
	}
	if resp.SheetName != "" {
		s.model.SheetName = resp.SheetName
	}
	return resp, nil
}

// RunConfirm sends the final mapping plus rows. Failure is purely a
// reporting outcome: neither the model nor the preview state is mutated.
func (s *Session) RunConfirm(ctx context.Context, records []map[string]any, cfg *mapping.Config) (*ConfirmResponse, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	prev := s.state
	s.state = StateConfirmRequested
	resp, err := s.client.Confirm(ctx, ConfirmRequest{
		ProjectID:          s.projectID,
		FinalMappingConfig: cfg,
		Rows:               records,
	})
	if err != nil {
		s.state = prev
		return nil, err
	}

	s.state = StateConfirmed
	return resp, nil
}
