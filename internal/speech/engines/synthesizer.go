package engines

import (
	"context"

	"github.com/buzzarbrief/brief/internal/audio"
)

// Audio is synthesized PCM and its format.
type Audio struct {
	PCM    []byte
	Format audio.Format
}

// Synthesizer renders text to PCM.
type Synthesizer interface {
	// Name identifies the synthesizer, e.g. "piper".
	Name() string

	// Voice identifies the configured voice; it is part of cache keys.
	Voice() string

	// Synthesize renders text at the given speed (1.0 is normal).
	Synthesize(ctx context.Context, text string, speed float64) (Audio, error)

	// Validate checks the synthesizer can run, without synthesizing.
	Validate(ctx context.Context) error

	Close() error
}
