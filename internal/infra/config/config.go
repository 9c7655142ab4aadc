// Package config provides configuration loading from YAML, TOML and legacy
// key = value files.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// NoLogFile disables file logging when used as log.file.
const NoLogFile = "-"

// Config represents the application configuration.
type Config struct {
	MPD      MPDConfig      `yaml:"mpd" toml:"mpd"`
	Client   ClientConfig   `yaml:"client" toml:"client"`
	Poll     PollConfig     `yaml:"poll" toml:"poll"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Launcher LauncherConfig `yaml:"launcher" toml:"launcher"`

	rootSet bool // MPD.Root was given explicitly, even if empty
}

// MPDConfig represents the player daemon connection.
type MPDConfig struct {
	Host     string `yaml:"host" toml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" toml:"port" default:"6600" validate:"gte=1,lte=65535"`
	Password string `yaml:"password" toml:"password"`
	Root     string `yaml:"root" toml:"root"` // defaults to $HOME/.music
}

// ClientConfig represents the Last.fm client connection.
type ClientConfig struct {
	Host      string `yaml:"host" toml:"host" default:"localhost" validate:"required"`
	Port      int    `yaml:"port" toml:"port" default:"33367" validate:"gte=1,lte=65535"`
	ID        string `yaml:"id" toml:"id" default:"mdc" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
}

// PollConfig represents polling intervals.
type PollConfig struct {
	ConnectedMs    int `yaml:"connected_ms" toml:"connected_ms" default:"500" validate:"gte=50,lte=60000"`
	DisconnectedMs int `yaml:"disconnected_ms" toml:"disconnected_ms" default:"2000" validate:"gte=50,lte=600000"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File  string `yaml:"file" toml:"file" default:"/var/log/mpdlfm/mdlfm.log"` // "-" for console only
	Level string `yaml:"level" toml:"level" default:"debug" validate:"oneof=debug info warn warning error"`
}

// LauncherConfig represents the Last.fm client auto start.
type LauncherConfig struct {
	Disabled bool     `yaml:"disabled" toml:"disabled"`
	Commands []string `yaml:"commands" toml:"commands" default:"[\"last.fm\",\"lastfm\"]"`
	Args     []string `yaml:"args" toml:"args" default:"[\"-tray\"]"`
	WaitMs   int      `yaml:"wait_ms" toml:"wait_ms" default:"3000" validate:"gte=0,lte=60000"`
}

// legacyConfig is the key = value format of /etc/mpdlastfm.conf.
// Pointers tell which keys the file actually sets.
type legacyConfig struct {
	Host     *string `mapstructure:"mpd_host"`
	Port     *int    `mapstructure:"mpd_port"`
	Password *string `mapstructure:"mpd_pass"`
	Root     *string `mapstructure:"mpd_root"`
	LogFile  *string `mapstructure:"log_file"`
}

// DefaultPaths returns the configuration files looked up when none is given,
// in increasing order of precedence.
func DefaultPaths() []string {
	paths := []string{"/etc/mpdlastfm.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mpdlastfm.conf"))
	}
	return append(paths, filepath.Join(xdg.ConfigHome, "mpdlfm", "config.yaml"))
}

// Load loads configuration from the given files. Files that do not exist
// are skipped; later files override earlier ones.
// Environment variables take precedence over file values.
func Load(paths ...string) (*Config, error) {
	var cfg Config

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(err, "failed to stat config file %s", path)
		}
		if err := cfg.loadFile(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if cfg.MPD.Root == "" && !cfg.rootSet {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.MPD.Root = filepath.Join(home, ".music")
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrap(err, "failed to parse YAML")
		}
	case ".toml":
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "failed to read config file")
		}
		if err := toml.Unmarshal(data, c); err != nil {
			return errors.Wrap(err, "failed to parse TOML")
		}
	default:
		return c.loadLegacy(path)
	}
	return nil
}

// legacyKeys lists the keys understood in key = value files.
var legacyKeys = map[string]bool{
	"mpd_host": true,
	"mpd_port": true,
	"mpd_pass": true,
	"mpd_root": true,
	"log_file": true,
}

// loadLegacy reads a key = value file. Unknown keys are ignored.
func (c *Config) loadLegacy(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	values, err := parseLegacy(string(data))
	if err != nil {
		return err
	}

	var legacy legacyConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &legacy,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(values); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if legacy.Host != nil {
		c.MPD.Host = *legacy.Host
	}
	if legacy.Port != nil {
		c.MPD.Port = *legacy.Port
	}
	if legacy.Password != nil {
		c.MPD.Password = *legacy.Password
	}
	if legacy.Root != nil {
		c.MPD.Root = *legacy.Root
		c.rootSet = true
	}
	if legacy.LogFile != nil {
		c.Log.File = *legacy.LogFile
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("MPD_HOST"); v != "" {
		c.MPD.Host = v
	}
	if v := os.Getenv("MPD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid MPD_PORT %q", v)
		}
		c.MPD.Port = port
	}
	if v := os.Getenv("MPD_PASSWORD"); v != "" {
		c.MPD.Password = v
	}
	if v := os.Getenv("MPDLFM_MUSIC_ROOT"); v != "" {
		c.MPD.Root = v
	}
	return nil
}

// parseLegacy splits each line at its first "=" and keeps the trimmed value
// verbatim, so "#" and "$" are part of the value. Blank lines, lines starting
// with "#", lines without "=" and unknown keys are skipped.
func parseLegacy(content string) (map[string]string, error) {
	var quoted strings.Builder
	verbatim := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !legacyKeys[key] {
			continue
		}
		// values godotenv cannot single-quote are kept as is
		if strings.Contains(value, "'") || strings.HasSuffix(value, `\`) {
			verbatim[key] = value
			continue
		}
		delete(verbatim, key)
		fmt.Fprintf(&quoted, "%s='%s'\n", key, value)
	}

	values, err := godotenv.Unmarshal(quoted.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse key = value file")
	}
	for key, value := range verbatim {
		values[key] = value
	}
	return values, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// LogFile returns the log file path, or "" when file logging is disabled.
func (c *Config) LogFile() string {
	if c.Log.File == NoLogFile {
		return ""
	}
	return c.Log.File
}

// ClientTimeout returns the Last.fm client connect and send timeout.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.Client.TimeoutMs) * time.Millisecond
}

// ConnectedInterval returns the pause between polls while connected.
func (c *Config) ConnectedInterval() time.Duration {
	return time.Duration(c.Poll.ConnectedMs) * time.Millisecond
}

// DisconnectedInterval returns the pause between reconnect attempts.
func (c *Config) DisconnectedInterval() time.Duration {
	return time.Duration(c.Poll.DisconnectedMs) * time.Millisecond
}

// LauncherWait returns how long to wait after starting the Last.fm client.
func (c *Config) LauncherWait() time.Duration {
	return time.Duration(c.Launcher.WaitMs) * time.Millisecond
}
