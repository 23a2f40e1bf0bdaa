package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buzzarbrief/brief/internal/audio"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/go-mp3"
	"golang.org/x/time/rate"
)

// DefaultRemoteEndpoint is the VoiceRSS-compatible synthesis endpoint.
const DefaultRemoteEndpoint = "https://api.voicerss.org/"

const remoteMaxTextSize = 5000

// RemoteConfig configures the remote synthesizer.
type RemoteConfig struct {
	// Endpoint of the TTS service (defaults to DefaultRemoteEndpoint).
	Endpoint string

	// APIKey authenticates requests (required to validate).
	APIKey string

	// Language code, e.g. "en-us" (default).
	Language string

	// Voice name, optional.
	Voice string

	// RequestsPerMinute throttles requests (defaults to 50).
	RequestsPerMinute int

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Remote synthesizes speech through an HTTP service that returns MP3.
type Remote struct {
	endpoint string
	apiKey   string
	language string
	voice    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewRemote creates a remote synthesizer.
func NewRemote(config RemoteConfig) (*Remote, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultRemoteEndpoint
	}
	if _, err := url.Parse(config.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if config.Language == "" {
		config.Language = "en-us"
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 50
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Remote{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		language: config.Language,
		voice:    config.Voice,
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}, nil
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Voice() string {
	if r.voice != "" {
		return r.language + "/" + r.voice
	}
	return r.language
}

// speechRate maps a speed multiplier to the service's -10..10 rate scale.
func speechRate(speed float64) int {
	if speed <= 0 {
		return 0
	}
	v := int(math.Round((speed - 1) * 10))
	return max(-10, min(10, v))
}

// Synthesize requests MP3 audio and decodes it to PCM.
func (r *Remote) Synthesize(ctx context.Context, text string, speed float64) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("text cannot be empty")
	}
	if len(text) > remoteMaxTextSize {
		return Audio{}, fmt.Errorf("text too long: %d characters (max %d)", len(text), remoteMaxTextSize)
	}
	if r.apiKey == "" {
		return Audio{}, errors.New("remote speech API key is not configured")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return Audio{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	form := url.Values{
		"key": {r.apiKey},
		"src": {text},
		"hl":  {r.language},
		"r":   {strconv.Itoa(speechRate(speed))},
		"c":   {"MP3"},
		"f":   {"44khz_16bit_mono"},
	}
	if r.voice != "" {
		form.Set("v", r.voice)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Audio{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("remote speech request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return Audio{}, fmt.Errorf("reading remote speech response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Audio{}, fmt.Errorf("remote speech service returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	// The service reports failures as a 200 with a plain text body.
	if msg, ok := serviceError(body); ok {
		return Audio{}, fmt.Errorf("remote speech service: %s", msg)
	}

	out, err := decodeMP3(body)
	if err != nil {
		return Audio{}, err
	}
	log.Debug("remote synthesized", "chars", len(text), "bytes", len(out.PCM), "took", time.Since(start))
	return out, nil
}

func serviceError(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("ERROR")) {
		return string(trimmed), true
	}
	return "", false
}

// decodeMP3 decodes MP3 to 16-bit stereo PCM at the stream's sample rate.
func decodeMP3(data []byte) (Audio, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Audio{}, fmt.Errorf("decoding mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Audio{}, fmt.Errorf("decoding mp3: %w", err)
	}
	if len(pcm) == 0 {
		return Audio{}, errors.New("remote speech service returned no mp3 audio")
	}
	return Audio{PCM: pcm, Format: audio.Format{SampleRate: dec.SampleRate(), Channels: 2}}, nil
}

// Validate checks that a key is configured and the service is reachable.
func (r *Remote) Validate(ctx context.Context) error {
	if r.apiKey == "" {
		return errors.New("remote speech API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote speech service unreachable: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("remote speech service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
