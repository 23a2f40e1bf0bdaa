package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// State of a Player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by a closed player.
	ErrClosed = errors.New("player is closed")

	// ErrEmpty is returned when there is nothing to play.
	ErrEmpty = errors.New("audio data is empty")
)

// PlayerConfig configures the output device.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz
	Channels   int // 1 or 2
	BufferSize int // bytes
}

// DefaultPlayerConfig returns mono 44.1kHz, which suits speech.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 4096,
	}
}

// Format returns the PCM format the player expects.
func (c PlayerConfig) Format() Format {
	return Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

func validateConfig(config PlayerConfig) error {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// oto allows a single context per process.
var (
	contextOnce   sync.Once
	sharedContext *oto.Context
	sharedFormat  Format
	contextErr    error
)

func otoContext(config PlayerConfig) (*oto.Context, error) {
	contextOnce.Do(func() {
		bytesPerSecond := config.Format().BytesPerSecond()
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(bytesPerSecond),
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			contextErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		sharedContext = ctx
		sharedFormat = config.Format()
		log.Debug("audio context ready", "rate", config.SampleRate, "channels", config.Channels)
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if sharedFormat != config.Format() {
		return nil, fmt.Errorf("audio context already open as %v, cannot reopen as %v", sharedFormat, config.Format())
	}
	return sharedContext, nil
}

// Player plays one PCM buffer at a time. Starting a new buffer stops the
// previous one.
type Player struct {
	context *oto.Context
	format  Format
	poll    time.Duration

	state  atomic.Int32
	volume atomic.Uint64 // volume * 1e6

	mu     sync.Mutex
	player *oto.Player
	data   []byte // kept alive while oto reads from it
	done   chan struct{}
}

// NewPlayer opens the audio output.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx, err := otoContext(config)
	if err != nil {
		return nil, err
	}

	p := &Player{
		context: ctx,
		format:  config.Format(),
		poll:    25 * time.Millisecond,
	}
	p.state.Store(int32(StateStopped))
	p.volume.Store(1e6)
	return p, nil
}

// Format returns the PCM format Play expects.
func (p *Player) Format() Format { return p.format }

// Play starts playing pcm and returns a channel closed when playback ends,
// naturally or through Stop.
func (p *Player) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, ErrEmpty
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == StateClosed {
		return nil, ErrClosed
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	op := p.context.NewPlayer(bytes.NewReader(data))
	op.SetVolume(p.Volume())
	op.Play()

	done := make(chan struct{})
	p.player = op
	p.data = data
	p.done = done
	p.state.Store(int32(StatePlaying))

	go p.watch(op)
	return done, nil
}

// watch detects natural completion of op.
func (p *Player) watch(op *oto.Player) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.player != op {
			p.mu.Unlock()
			return
		}
		if p.State() == StatePlaying && !op.IsPlaying() {
			p.releaseLocked()
			p.state.Store(int32(StateStopped))
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// Done returns the channel of the current playback. It is already closed
// when nothing is playing.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.done
}

// Pause pauses playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.State(); st != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", st)
	}
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.State(); st != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", st)
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop ends playback.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if st := p.State(); st == StateStopped || st == StateClosed {
		return
	}
	if p.player != nil {
		p.player.Pause()
	}
	p.releaseLocked()
	p.state.Store(int32(StateStopped))
}

func (p *Player) releaseLocked() {
	if p.player != nil {
		if err := p.player.Close(); err != nil {
			log.Debug("closing oto player", "error", err)
		}
		p.player = nil
	}
	p.data = nil
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

// IsPlaying reports whether audio is audible.
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// State returns the player state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// SetVolume sets the volume in [0, 1].
func (p *Player) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(uint64(volume * 1e6))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return float64(p.volume.Load()) / 1e6
}

// Close stops playback. The shared oto context stays open for the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}
