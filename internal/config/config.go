package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

const (
	defaultAppID        = "1312496743879016488"
	defaultInterval     = 15
	defaultLargeImage   = "cmus1"
	defaultPlayingImage = "playing1"
	defaultPausedImage  = "paused1"
	defaultDetailsText  = "%t"
	defaultStateText    = "%a"
	defaultPlayer       = PlayerCmus
	defaultCmusCommand  = "cmus-remote"
	defaultMPDNetwork   = "tcp"
	defaultMPDAddress   = "localhost:6600"

	unknownPlaceholder = "Unknown"
)

// Supported player backends
const (
	PlayerCmus  = "cmus"
	PlayerMPD   = "mpd"
	PlayerMPRIS = "mpris"
)

// Config is the resolved configuration. It is built once at startup and
// passed by value; nothing mutates it afterwards.
type Config struct {
	// Path is the config file that was read, empty if none
	Path string

	AppID    string
	Interval time.Duration

	Silent    bool
	Debug     bool
	Timestamp bool
	SongTime  bool
	NoUnknown bool
	Notify    bool

	LargeImage   string
	PlayingImage string
	PausedImage  string

	DetailsText  string
	StateText    string
	ButtonOne    string
	ButtonTwo    string
	ButtonURLOne string
	ButtonURLTwo string

	Player  string
	PIDFile string
	Cmus    CmusConfig
	MPD     MPDConfig
	MPRIS   MPRISConfig
}

// CmusConfig configures the cmus-remote backend
type CmusConfig struct {
	Command  string
	Server   string
	Password string
}

// MPDConfig configures the MPD backend
type MPDConfig struct {
	Network  string
	Address  string
	Password string
}

// MPRISConfig configures the MPRIS backend.
// An empty Player selects the first MPRIS player on the session bus.
type MPRISConfig struct {
	Player string
}

// Placeholder returns the value used for missing metadata fields
func (c Config) Placeholder() string {
	if c.NoUnknown {
		return ""
	}
	return unknownPlaceholder
}

// Verbose reports whether human-readable messages should be printed
func (c Config) Verbose() bool {
	return !c.Silent || c.Debug
}

// MarshalLogObject implements zapcore.ObjectMarshaler
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("path", c.Path)
	enc.AddString("appid", c.AppID)
	enc.AddDuration("interval", c.Interval)
	enc.AddBool("silent", c.Silent)
	enc.AddBool("debug", c.Debug)
	enc.AddBool("timestamp", c.Timestamp)
	enc.AddBool("songTime", c.SongTime)
	enc.AddBool("noUnknown", c.NoUnknown)
	enc.AddBool("notify", c.Notify)
	enc.AddString("largeImage", c.LargeImage)
	enc.AddString("playingImage", c.PlayingImage)
	enc.AddString("pausedImage", c.PausedImage)
	enc.AddString("detailsText", c.DetailsText)
	enc.AddString("stateText", c.StateText)
	enc.AddString("buttonOne", c.ButtonOne)
	enc.AddString("buttonTwo", c.ButtonTwo)
	enc.AddString("buttonUrlOne", c.ButtonURLOne)
	enc.AddString("buttonUrlTwo", c.ButtonURLTwo)
	enc.AddString("player", c.Player)
	enc.AddString("pidfile", c.PIDFile)
	return nil
}

// fileConfig mirrors the TOML file layout
type fileConfig struct {
	AppID        string `toml:"appid"`
	Interval     int    `toml:"interval"`
	Silent       bool   `toml:"silent"`
	Timestamp    bool   `toml:"timestamp"`
	SongTime     bool   `toml:"song_time"`
	NoUnknown    bool   `toml:"no_unknown"`
	Notify       bool   `toml:"notify"`
	LargeImage   string `toml:"large_image"`
	PlayingImage string `toml:"playing_image"`
	PausedImage  string `toml:"paused_image"`
	DetailsText  string `toml:"details_text"`
	StateText    string `toml:"state_text"`
	ButtonOne    string `toml:"button_one"`
	ButtonTwo    string `toml:"button_two"`
	ButtonURLOne string `toml:"button_url_one"`
	ButtonURLTwo string `toml:"button_url_two"`
	Player       string `toml:"player"`
	PIDFile      string `toml:"pidfile"`

	Cmus struct {
		Command  string `toml:"command"`
		Server   string `toml:"server"`
		Password string `toml:"password"`
	} `toml:"cmus"`
	MPD struct {
		Network  string `toml:"network"`
		Address  string `toml:"address"`
		Password string `toml:"password"`
	} `toml:"mpd"`
	MPRIS struct {
		Player string `toml:"player"`
	} `toml:"mpris"`
}

// Default returns the built-in configuration
func Default() Config {
	return defaultFile().toConfig()
}

func defaultFile() fileConfig {
	fc := fileConfig{
		AppID:        defaultAppID,
		Interval:     defaultInterval,
		LargeImage:   defaultLargeImage,
		PlayingImage: defaultPlayingImage,
		PausedImage:  defaultPausedImage,
		DetailsText:  defaultDetailsText,
		StateText:    defaultStateText,
		Player:       defaultPlayer,
	}
	fc.Cmus.Command = defaultCmusCommand
	fc.MPD.Network = defaultMPDNetwork
	fc.MPD.Address = defaultMPDAddress
	return fc
}

func (fc fileConfig) toConfig() Config {
	return Config{
		AppID:        fc.AppID,
		Interval:     time.Duration(fc.Interval) * time.Second,
		Silent:       fc.Silent,
		Timestamp:    fc.Timestamp,
		SongTime:     fc.SongTime,
		NoUnknown:    fc.NoUnknown,
		Notify:       fc.Notify,
		LargeImage:   fc.LargeImage,
		PlayingImage: fc.PlayingImage,
		PausedImage:  fc.PausedImage,
		DetailsText:  fc.DetailsText,
		StateText:    fc.StateText,
		ButtonOne:    fc.ButtonOne,
		ButtonTwo:    fc.ButtonTwo,
		ButtonURLOne: fc.ButtonURLOne,
		ButtonURLTwo: fc.ButtonURLTwo,
		Player:       strings.ToLower(strings.TrimSpace(fc.Player)),
		PIDFile:      mustExpand(fc.PIDFile),
		Cmus: CmusConfig{
			Command:  fc.Cmus.Command,
			Server:   mustExpand(fc.Cmus.Server),
			Password: fc.Cmus.Password,
		},
		MPD: MPDConfig{
			Network:  fc.MPD.Network,
			Address:  fc.MPD.Address,
			Password: fc.MPD.Password,
		},
		MPRIS: MPRISConfig{Player: fc.MPRIS.Player},
	}
}

// loadFile reads the TOML file at path on top of the defaults.
// A missing file is created with the default values.
func loadFile(path string) (fileConfig, string, error) {
	fc := defaultFile()

	resolved, err := expandPath(path)
	if err != nil {
		return fileConfig{}, "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := writeDefaults(resolved); err != nil {
				return fileConfig{}, "", err
			}
			return fc, resolved, nil
		}
		return fileConfig{}, "", fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, "", fmt.Errorf("parse config: %w", err)
	}
	return fc, resolved, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(defaultFile())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Validate checks values that cannot be corrected silently
func (c Config) Validate() error {
	switch c.Player {
	case PlayerCmus, PlayerMPD, PlayerMPRIS:
	default:
		return fmt.Errorf("unsupported player %q (want %s, %s or %s)", c.Player, PlayerCmus, PlayerMPD, PlayerMPRIS)
	}
	if strings.TrimSpace(c.AppID) == "" {
		return errors.New("appid is empty")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	return nil
}

func mustExpand(path string) string {
	if strings.TrimSpace(path) == "" {
		return path
	}
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
