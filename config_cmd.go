package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path (default "auto")
style: "auto"
# mouse swipes and wheel
mouse: true
# word-wrap cards at width (0 fits the terminal)
width: 0
# default region for newsletter phone numbers
region: "IN"

# news backend; when url is empty the feeds below are read instead
api:
  url: ""
  key: ""
  timeout: "15s"
  requests_per_minute: 120

# RSS/Atom feeds
feeds:
  - "https://economictimes.indiatimes.com/rssfeedsdefault.cms"
  - "https://www.livemint.com/rss/companies"
  - "https://www.business-standard.com/rss/markets-106.rss"

# interests offered for selection when reading feeds, with match terms
# industries:
#   Banking: ["bank", "rbi", "lending"]
#   Power: ["power", "electricity", "grid"]

speech:
  enabled: true
  # speaking rate (1.0 is the voice's normal rate)
  speed: 0.8
  # audio kept in memory for replays, in MB
  cache_mb: 32
  # how long the local voice has to start before the online one takes over
  probe_timeout: "3s"

  # local voice
  piper:
    binary: "piper"
    # model: "~/.local/share/piper/en_IN-voice-medium.onnx"
    # config: "~/.local/share/piper/en_IN-voice-medium.onnx.json"
    # speaker: "0"

  # online voice, used when the local one is unavailable
  remote:
    # endpoint: "https://api.voicerss.org/"
    # key: "your-api-key-here"
    language: "en-in"
    # voice: "Eka"
    requests_per_minute: 50
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the brief config file",
	Long:    paragraph(fmt.Sprintf("\n%s the brief config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("brief config\nbrief config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// A broken config must stay editable, so the root's validation is skipped.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Brief", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
