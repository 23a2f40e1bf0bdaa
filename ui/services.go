package ui

import (
	"context"

	"github.com/buzzarbrief/brief/internal/news"
	"github.com/buzzarbrief/brief/internal/speech"
)

// IndustryLister supplies the interests offered for selection.
type IndustryLister interface {
	Industries(ctx context.Context) ([]news.Industry, error)
}

// Subscriber manages newsletter subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, phone string, subscribe bool) error
}

// Speaker is the part of *speech.Adapter the feed uses.
type Speaker interface {
	Init(ctx context.Context)
	Speak(text string, onStart, onEnd func()) *speech.Utterance
	Stop()
	Pause()
	Resume()
	State() speech.State
	Close() error
}

var _ Speaker = (*speech.Adapter)(nil)

// Services are the collaborators the screens talk to. Only Articles and
// Industries are required.
type Services struct {
	Articles   news.Source
	Industries IndustryLister

	// Subscriber is nil when no newsletter backend is configured.
	Subscriber Subscriber

	// NewSpeaker builds the feed's speech adapter on mount. Nil disables
	// listening.
	NewSpeaker func() Speaker

	// ReadMore fetches the full text of an article page.
	ReadMore func(ctx context.Context, url string) (string, error)

	// Copy puts text on the clipboard.
	Copy func(text string) error
}
