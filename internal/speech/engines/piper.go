package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/buzzarbrief/brief/internal/audio"
	"github.com/charmbracelet/log"
)

const (
	piperTimeout      = 30 * time.Second
	piperMaxTextSize  = 5000
	piperMaxAudioSize = 20 * 1024 * 1024
)

// PiperConfig configures the Piper synthesizer.
type PiperConfig struct {
	// Binary is the piper executable (defaults to "piper" on PATH).
	Binary string

	// ModelPath is the .onnx voice model (required).
	ModelPath string

	// ConfigPath defaults to the model path with .json appended, as piper
	// voices ship ("voice.onnx" and "voice.onnx.json").
	ConfigPath string

	// Speaker selects a speaker in multi-speaker models.
	Speaker string

	// SampleRate of the model output (defaults to 22050).
	SampleRate int
}

// Piper synthesizes speech locally. Every call runs a fresh process with
// its stdin prepared up front, which avoids racing the process for input.
type Piper struct {
	binary     string
	modelPath  string
	configPath string
	speaker    string
	format     audio.Format
}

// NewPiper creates a Piper synthesizer. It does not check the binary; see
// Validate.
func NewPiper(config PiperConfig) (*Piper, error) {
	if config.ModelPath == "" {
		return nil, errors.New("piper model path is required")
	}
	if config.Binary == "" {
		config.Binary = "piper"
	}
	if config.ConfigPath == "" {
		config.ConfigPath = config.ModelPath + ".json"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 22050
	}

	return &Piper{
		binary:     config.Binary,
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		speaker:    config.Speaker,
		format:     audio.Format{SampleRate: config.SampleRate, Channels: 1},
	}, nil
}

func (p *Piper) Name() string { return "piper" }

func (p *Piper) Voice() string {
	voice := strings.TrimSuffix(filepath.Base(p.modelPath), filepath.Ext(p.modelPath))
	if p.speaker != "" {
		voice += "#" + p.speaker
	}
	return voice
}

// Synthesize runs piper and returns raw mono PCM.
func (p *Piper) Synthesize(ctx context.Context, text string, speed float64) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("text cannot be empty")
	}
	if len(text) > piperMaxTextSize {
		return Audio{}, fmt.Errorf("text too long: %d characters (max %d)", len(text), piperMaxTextSize)
	}
	if speed <= 0 {
		speed = 1
	}

	args := []string{
		"--model", p.modelPath,
		"--config", p.configPath,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1.0/speed),
	}
	if p.speaker != "" {
		args = append(args, "--speaker", p.speaker)
	}

	ctx, cancel := context.WithTimeout(ctx, piperTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Audio{}, fmt.Errorf("piper synthesis interrupted: %w", ctx.Err())
		}
		return Audio{}, fmt.Errorf("piper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return Audio{}, fmt.Errorf("piper produced no audio output, stderr: %s", strings.TrimSpace(stderr.String()))
	}
	if len(pcm) > piperMaxAudioSize {
		return Audio{}, fmt.Errorf("piper output too large: %d bytes (max %d)", len(pcm), piperMaxAudioSize)
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	log.Debug("piper synthesized", "chars", len(text), "bytes", len(pcm), "took", time.Since(start))
	return Audio{PCM: pcm, Format: p.format}, nil
}

// Validate checks that the binary and the model exist.
func (p *Piper) Validate(ctx context.Context) error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("piper not found: %w", err)
	}
	if _, err := os.Stat(p.modelPath); err != nil {
		return fmt.Errorf("piper model not accessible: %w", err)
	}
	if _, err := os.Stat(p.configPath); err != nil {
		log.Debug("piper model config missing", "path", p.configPath)
	}
	return ctx.Err()
}

func (p *Piper) Close() error { return nil }
