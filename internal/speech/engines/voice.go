package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/buzzarbrief/brief/internal/audio"
	"github.com/buzzarbrief/brief/internal/cache"
	"github.com/buzzarbrief/brief/internal/plaintext"
	"github.com/buzzarbrief/brief/internal/speech"
	"github.com/charmbracelet/log"
)

// DefaultSpeed is the speaking rate the reader uses.
const DefaultSpeed = 0.8

const defaultChunkSize = 400

// Output plays PCM. *audio.Player implements it.
type Output interface {
	Format() audio.Format
	Play(pcm []byte) (<-chan struct{}, error)
	Pause() error
	Resume() error
	Stop() error
}

var _ Output = (*audio.Player)(nil)

// VoiceConfig configures a Voice.
type VoiceConfig struct {
	// Speed is the speaking rate, 1.0 being the synthesizer's normal rate.
	Speed float64

	// Cache holds synthesized chunks; nil disables caching.
	Cache cache.Store

	// ChunkSize bounds the text synthesized per call.
	ChunkSize int
}

// Voice speaks through a Synthesizer and an Output. Text is synthesized a
// chunk ahead of playback so that sentences follow each other without gaps.
type Voice struct {
	synth     Synthesizer
	out       Output
	cache     cache.Store
	speed     float64
	chunkSize int

	mu  sync.Mutex
	cur *voiceSession
}

var _ speech.Engine = (*Voice)(nil)

type voiceSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Guarded by Voice.mu.
	playing bool
	paused  bool
	resumed chan struct{}
}

// NewVoice creates a Voice.
func NewVoice(synth Synthesizer, out Output, config VoiceConfig) *Voice {
	if config.Speed <= 0 {
		config.Speed = DefaultSpeed
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	return &Voice{
		synth:     synth,
		out:       out,
		cache:     config.Cache,
		speed:     config.Speed,
		chunkSize: config.ChunkSize,
	}
}

func (v *Voice) Name() string { return v.synth.Name() }

// Prepare validates the synthesizer.
func (v *Voice) Prepare(ctx context.Context) error {
	if err := v.synth.Validate(ctx); err != nil {
		return fmt.Errorf("%s: %w", v.synth.Name(), err)
	}
	return nil
}

// Speak starts speaking text, replacing any current session.
func (v *Voice) Speak(ctx context.Context, text string, cb speech.Callbacks) error {
	chunks := plaintext.Chunks(text, v.chunkSize)
	if len(chunks) == 0 {
		return speech.ErrEmptyText
	}

	v.Cancel()

	sctx, cancel := context.WithCancel(ctx)
	s := &voiceSession{ctx: sctx, cancel: cancel}

	v.mu.Lock()
	v.cur = s
	v.mu.Unlock()

	go v.run(s, chunks, cb)
	return nil
}

type synthesized struct {
	pcm []byte
	err error
}

func (v *Voice) run(s *voiceSession, chunks []string, cb speech.Callbacks) {
	defer s.cancel()

	// One chunk is synthesized ahead of the one playing.
	results := make(chan synthesized, 1)
	go func() {
		defer close(results)
		for _, chunk := range chunks {
			pcm, err := v.synthesize(s.ctx, chunk)
			select {
			case results <- synthesized{pcm, err}:
			case <-s.ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	started := false
	for r := range results {
		if r.err != nil {
			v.finish(s, cb, r.err)
			return
		}
		done, err := v.play(s, r.pcm)
		if err != nil {
			v.finish(s, cb, err)
			return
		}
		if !started {
			started = true
			if cb.Started != nil {
				cb.Started()
			}
		}
		select {
		case <-done:
		case <-s.ctx.Done():
		}
		if s.ctx.Err() != nil {
			break
		}
	}

	if s.ctx.Err() != nil {
		v.finish(s, cb, speech.ErrCanceled)
		return
	}
	v.finish(s, cb, nil)
}

// play waits out a pause, then hands pcm to the output while s is still
// the current session.
func (v *Voice) play(s *voiceSession, pcm []byte) (<-chan struct{}, error) {
	for {
		v.mu.Lock()
		if v.cur != s || s.ctx.Err() != nil {
			v.mu.Unlock()
			return nil, speech.ErrCanceled
		}
		if !s.paused {
			break
		}
		resumed := s.resumed
		v.mu.Unlock()

		select {
		case <-resumed:
		case <-s.ctx.Done():
		}
	}
	defer v.mu.Unlock()

	done, err := v.out.Play(pcm)
	if err != nil {
		return nil, speech.NewError(speech.ErrorCodeAudioFailure, "playing audio", err)
	}
	s.playing = true
	return done, nil
}

func (v *Voice) synthesize(ctx context.Context, chunk string) ([]byte, error) {
	var key string
	if v.cache != nil {
		key = cache.Key(v.synth.Name(), v.synth.Voice(), chunk, v.speed)
		if pcm, ok := v.cache.Get(key); ok {
			return pcm, nil
		}
	}

	a, err := v.synth.Synthesize(ctx, chunk, v.speed)
	if err != nil {
		if ctx.Err() != nil {
			return nil, speech.ErrCanceled
		}
		return nil, speech.NewError(speech.ErrorCodeEngineFailure, v.synth.Name(), fmt.Errorf("%w: %v", speech.ErrSynthesisFailed, err))
	}
	pcm := audio.Convert(a.PCM, a.Format, v.out.Format())

	if v.cache != nil {
		if err := v.cache.Put(key, pcm); err != nil && !errors.Is(err, cache.ErrItemTooLarge) {
			log.Debug("caching speech", "error", err)
		}
	}
	return pcm, nil
}

func (v *Voice) finish(s *voiceSession, cb speech.Callbacks, err error) {
	v.mu.Lock()
	if v.cur == s {
		v.cur = nil
		if s.playing {
			_ = v.out.Stop()
		}
	}
	v.mu.Unlock()

	if err != nil && !errors.Is(err, speech.ErrCanceled) {
		log.Debug("speech session failed", "engine", v.Name(), "error", err)
	}
	if cb.Finished != nil {
		cb.Finished(err)
	}
}

// Speaking reports whether audio of the current session is playing.
func (v *Voice) Speaking() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur != nil && v.cur.playing && !v.cur.paused
}

func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.cur
	if s == nil || s.paused {
		return
	}
	s.paused = true
	s.resumed = make(chan struct{})
	if s.playing {
		_ = v.out.Pause()
	}
}

func (v *Voice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.cur
	if s == nil || !s.paused {
		return
	}
	s.paused = false
	close(s.resumed)
	if s.playing {
		_ = v.out.Resume()
	}
}

// Cancel stops the current session. The output is only stopped if this
// voice is the one playing on it.
func (v *Voice) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.cur
	if s == nil {
		return
	}
	v.cur = nil
	s.cancel()
	if s.playing {
		_ = v.out.Stop()
	}
}

func (v *Voice) Close() error {
	v.Cancel()
	return v.synth.Close()
}
