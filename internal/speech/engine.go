package speech

import "context"

// Kind selects one of the adapter's two engine slots.
type Kind int

const (
	// Primary is the local engine.
	Primary Kind = iota
	// Fallback is the remote engine used once the primary proves unusable.
	Fallback
)

func (k Kind) String() string {
	if k == Fallback {
		return "fallback"
	}
	return "primary"
}

// Callbacks receive the progress of one engine session.
type Callbacks struct {
	// Started is called at most once, when audio is actually audible.
	Started func()

	// Finished is called when the session ends: naturally (nil), on error,
	// or after Cancel (ErrCanceled). Engines may omit it after Cancel.
	Finished func(err error)
}

// Engine renders text as audio. Implementations run one session at a time.
type Engine interface {
	// Name identifies the engine in logs and the status bar.
	Name() string

	// Prepare readies the engine, for example by locating its binary or
	// loading its voice list. It may block.
	Prepare(ctx context.Context) error

	// Speak starts a session and returns promptly. Progress is reported
	// through the callbacks, possibly from other goroutines.
	Speak(ctx context.Context, text string, cb Callbacks) error

	// Speaking reports whether the engine is currently rendering audio.
	Speaking() bool

	Pause()
	Resume()

	// Cancel stops the current session, if any, before returning.
	Cancel()

	Close() error
}
