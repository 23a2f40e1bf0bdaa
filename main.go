// Package main provides the entry point for the brief CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/buzzarbrief/brief/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	noSpeech   bool

	rootCmd = &cobra.Command{
		Use:   "brief",
		Short: "Business news in your terminal, read aloud",
		Long: paragraph(
			fmt.Sprintf("\nSwipe through the day's business news and %s.", keyword("listen to it")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// expandPath expands environment variables and a leading tilde.
func expandPath(path string) string {
	home, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return home
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = expandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

// loadConfigFile reads an explicitly chosen configuration file in place of
// the one found in the default places.
func loadConfigFile(path string) error {
	viper.SetConfigFile(expandPath(path))
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		if err := loadConfigFile(configFile); err != nil {
			return err
		}
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	noSpeech = noSpeech || !viper.GetBool("speech.enabled")

	if s := viper.GetFloat64("speech.speed"); s < 0.1 || s > 3.0 {
		return fmt.Errorf("speech speed must be between 0.1 and 3.0, got %.2f", s)
	}
	if model := viper.GetString("speech.piper.model"); model != "" {
		if _, err := os.Stat(expandPath(model)); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("piper model file does not exist: %s", model)
		}
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") && width == 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = uint(w) //nolint:gosec
		}
		if width > 120 {
			width = 120
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func execute(*cobra.Command, []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("brief needs an interactive terminal")
	}
	return runTUI()
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag's if unset
	if cfg.GlamourStyle == "" || validateStyle(cfg.GlamourStyle) != nil {
		cfg.GlamourStyle = style
	}
	if cfg.GlamourStyle != styles.AutoStyle {
		cfg.GlamourStyle = expandPath(cfg.GlamourStyle)
	}
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.PhoneRegion = viper.GetString("region")

	opts := loadServiceOptions()
	if noSpeech {
		opts.speech = false
	}
	svc, closer, err := buildServices(opts)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := ui.NewProgram(cfg, svc).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	flags.UintVarP(&width, "width", "w", 0, "word-wrap cards at width (set to 0 to fit the terminal)")
	flags.BoolVarP(&mouse, "mouse", "m", true, "enable mouse swipes and wheel")
	flags.Bool("debug", false, "write a debug log to the cache directory")
	flags.String("api-url", "", "news backend URL (reads RSS feeds when unset)")
	flags.String("api-key", "", "news backend API key")
	flags.StringSlice("feed", nil, "RSS/Atom feed URL (repeatable)")
	flags.String("region", "IN", "default region for newsletter phone numbers")
	flags.String("piper-binary", "piper", "path to the piper executable")
	flags.String("piper-model", "", "path to a piper .onnx voice model")
	flags.String("speech-key", "", "API key for the online speech service")
	flags.String("voice", "", "voice name for the online speech service")
	flags.Float64("speed", 0.8, "speaking rate (1.0 is the voice's normal rate)")
	flags.BoolVar(&noSpeech, "no-speech", false, "disable listening")

	// Config bindings
	_ = viper.BindPFlag("style", flags.Lookup("style"))
	_ = viper.BindPFlag("width", flags.Lookup("width"))
	_ = viper.BindPFlag("mouse", flags.Lookup("mouse"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("api.url", flags.Lookup("api-url"))
	_ = viper.BindPFlag("api.key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("feeds", flags.Lookup("feed"))
	_ = viper.BindPFlag("region", flags.Lookup("region"))
	_ = viper.BindPFlag("speech.piper.binary", flags.Lookup("piper-binary"))
	_ = viper.BindPFlag("speech.piper.model", flags.Lookup("piper-model"))
	_ = viper.BindPFlag("speech.remote.key", flags.Lookup("speech-key"))
	_ = viper.BindPFlag("speech.remote.voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("speech.speed", flags.Lookup("speed"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("mouse", true)
	viper.SetDefault("region", "IN")
	viper.SetDefault("feeds", defaultFeeds)
	viper.SetDefault("api.timeout", "15s")
	viper.SetDefault("api.requests_per_minute", 120)
	viper.SetDefault("speech.enabled", true)
	viper.SetDefault("speech.speed", 0.8)
	viper.SetDefault("speech.cache_mb", 32)
	viper.SetDefault("speech.probe_timeout", "3s")
	viper.SetDefault("speech.piper.binary", "piper")
	viper.SetDefault("speech.remote.language", "en-in")
	viper.SetDefault("speech.remote.requests_per_minute", 50)

	rootCmd.AddCommand(configCmd, manCmd, versionCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "brief")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "brief")}, dirs...)
	}

	if c := os.Getenv("BRIEF_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("brief")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("brief")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		viper.OnConfigChange(func(e fsnotify.Event) {
			// Settings are read once at startup; edits apply on the next run.
			log.Info("Configuration file changed", "path", e.Name, "op", e.Op.String())
		})
		viper.WatchConfig()
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "brief.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
