package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	GlamourMaxWidth uint
	EnableMouse     bool

	// PhoneRegion is the default region for newsletter phone numbers.
	PhoneRegion string

	// PixelsPerRow converts mouse drags in rows into swipe distance.
	PixelsPerRow float64 `env:"BRIEF_PIXELS_PER_ROW" envDefault:"18"`

	SplashDuration  time.Duration `env:"BRIEF_SPLASH_DURATION"   envDefault:"2s"`
	MinFetchDisplay time.Duration `env:"BRIEF_MIN_FETCH_DISPLAY" envDefault:"3s"`

	// For debugging the UI
	GlamourEnabled bool `env:"BRIEF_ENABLE_GLAMOUR" envDefault:"true"`
}
