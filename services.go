package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/buzzarbrief/brief/internal/audio"
	"github.com/buzzarbrief/brief/internal/cache"
	"github.com/buzzarbrief/brief/internal/news"
	"github.com/buzzarbrief/brief/internal/plaintext"
	"github.com/buzzarbrief/brief/internal/speech"
	"github.com/buzzarbrief/brief/internal/speech/engines"
	"github.com/buzzarbrief/brief/ui"
)

// Feeds read when no backend is configured.
var defaultFeeds = []string{
	"https://economictimes.indiatimes.com/rssfeedsdefault.cms",
	"https://www.livemint.com/rss/companies",
	"https://www.business-standard.com/rss/markets-106.rss",
}

type serviceOptions struct {
	apiURL     string
	apiKey     string
	apiTimeout time.Duration
	apiRPM     int
	feeds      []string
	industries map[string][]string
	region     string

	speech       bool
	speed        float64
	cacheMB      int64
	probeTimeout time.Duration

	piperBinary  string
	piperModel   string
	piperConfig  string
	piperSpeaker string

	remoteEndpoint string
	remoteKey      string
	remoteLanguage string
	remoteVoice    string
	remoteRPM      int
}

func loadServiceOptions() serviceOptions {
	return serviceOptions{
		apiURL:     viper.GetString("api.url"),
		apiKey:     viper.GetString("api.key"),
		apiTimeout: viper.GetDuration("api.timeout"),
		apiRPM:     viper.GetInt("api.requests_per_minute"),
		feeds:      viper.GetStringSlice("feeds"),
		industries: industryNames(viper.GetStringMapStringSlice("industries")),
		region:     viper.GetString("region"),

		speech:       viper.GetBool("speech.enabled"),
		speed:        viper.GetFloat64("speech.speed"),
		cacheMB:      viper.GetInt64("speech.cache_mb"),
		probeTimeout: viper.GetDuration("speech.probe_timeout"),

		piperBinary:  expandPath(viper.GetString("speech.piper.binary")),
		piperModel:   expandPath(viper.GetString("speech.piper.model")),
		piperConfig:  expandPath(viper.GetString("speech.piper.config")),
		piperSpeaker: viper.GetString("speech.piper.speaker"),

		remoteEndpoint: viper.GetString("speech.remote.endpoint"),
		remoteKey:      viper.GetString("speech.remote.key"),
		remoteLanguage: viper.GetString("speech.remote.language"),
		remoteVoice:    viper.GetString("speech.remote.voice"),
		remoteRPM:      viper.GetInt("speech.remote.requests_per_minute"),
	}
}

// industryNames restores the casing of configured industry names, which
// viper lowercases.
func industryNames(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for name, terms := range m {
		out[plaintext.CapitalizeWords(name)] = terms
	}
	return out
}

// buildServices wires the screens to the backend or to RSS feeds, and to
// the speech engines. The returned func releases the audio device.
func buildServices(opts serviceOptions) (ui.Services, func(), error) {
	if opts.apiTimeout <= 0 {
		opts.apiTimeout = 15 * time.Second
	}
	hc := &http.Client{Timeout: opts.apiTimeout}

	svc := ui.Services{
		ReadMore: func(ctx context.Context, url string) (string, error) {
			return news.ReadMore(ctx, hc, url)
		},
	}

	if opts.apiURL != "" {
		c, err := news.NewClient(news.ClientConfig{
			BaseURL:           opts.apiURL,
			APIKey:            opts.apiKey,
			Timeout:           opts.apiTimeout,
			RequestsPerMinute: opts.apiRPM,
			PhoneRegion:       opts.region,
		})
		if err != nil {
			return ui.Services{}, nil, fmt.Errorf("unable to create news client: %w", err)
		}
		svc.Articles = c
		svc.Industries = c
		svc.Subscriber = c
		log.Debug("Reading news from backend", "url", opts.apiURL)
	} else {
		src := news.NewFeedSource(opts.feeds)
		src.SetIndustries(opts.industries)
		svc.Articles = src
		svc.Industries = src
		log.Debug("Reading news from feeds", "feeds", len(opts.feeds))
	}

	if !opts.speech {
		return svc, func() {}, nil
	}
	v := &voices{opts: opts}
	svc.NewSpeaker = v.newSpeaker
	return svc, v.close, nil
}

// voices opens the audio device and synthesizers on first use and shares
// them between the speech adapters the feed creates on every visit.
type voices struct {
	opts serviceOptions

	once   sync.Once
	player *audio.Player
	cache  cache.Store
	packed *cache.Compressed
	local  engines.Synthesizer
	remote engines.Synthesizer
}

func (v *voices) open() {
	v.once.Do(func() {
		player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
		if err != nil {
			log.Error("Audio output unavailable", "error", err)
			return
		}
		v.player = player
		mem := cache.NewMemory(max(v.opts.cacheMB, 1) << 20)
		v.cache = mem
		if packed, err := cache.NewCompressed(mem); err != nil {
			log.Warn("Speech cache compression disabled", "error", err)
		} else {
			v.packed = packed
			v.cache = packed
		}

		if v.opts.piperModel != "" {
			p, err := engines.NewPiper(engines.PiperConfig{
				Binary:     v.opts.piperBinary,
				ModelPath:  v.opts.piperModel,
				ConfigPath: v.opts.piperConfig,
				Speaker:    v.opts.piperSpeaker,
			})
			if err != nil {
				log.Warn("Local voice disabled", "error", err)
			} else {
				v.local = p
			}
		}

		if v.opts.remoteKey != "" {
			r, err := engines.NewRemote(engines.RemoteConfig{
				Endpoint:          v.opts.remoteEndpoint,
				APIKey:            v.opts.remoteKey,
				Language:          v.opts.remoteLanguage,
				Voice:             v.opts.remoteVoice,
				RequestsPerMinute: v.opts.remoteRPM,
			})
			if err != nil {
				log.Warn("Online voice disabled", "error", err)
			} else {
				v.remote = r
			}
		}
	})
}

func (v *voices) newSpeaker() ui.Speaker {
	v.open()

	cfg := engines.VoiceConfig{Speed: v.opts.speed, Cache: v.cache}
	var primary, fallback speech.Engine
	if v.player != nil && v.local != nil {
		primary = engines.NewVoice(v.local, v.player, cfg)
	}
	if v.player != nil && v.remote != nil {
		fallback = engines.NewVoice(v.remote, v.player, cfg)
	}
	return speech.New(primary, fallback, speech.WithProbeTimeout(v.opts.probeTimeout))
}

func (v *voices) close() {
	if v.packed != nil {
		_ = v.packed.Close()
	}
	if v.player == nil {
		return
	}
	if err := v.player.Close(); err != nil {
		log.Debug("Unable to close audio output", "error", err)
	}
}
