package classifier

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by a recognizer that has no backend.
	ErrNotConfigured = errors.New("classifier is not configured")
	// ErrCircuitOpen is returned while the classifier backend is failing.
	ErrCircuitOpen = errors.New("classifier circuit open")
)

// Recognizer classifies free text into intents and entities. Callers must
// check Configured before calling Classify.
type Recognizer interface {
	Configured() bool
	Classify(ctx context.Context, text string) (*Utterance, error)
}

// Unconfigured is the recognizer used when no backend is set up.
type Unconfigured struct{}

func (Unconfigured) Configured() bool { return false }

func (Unconfigured) Classify(context.Context, string) (*Utterance, error) {
	return nil, ErrNotConfigured
}
