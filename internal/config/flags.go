package config

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrVersion is returned by Parse when --version was requested
var ErrVersion = errors.New("version requested")

// Parse resolves the configuration from command line arguments (without the
// program name). Explicitly set flags override the config file, which
// overrides the built-in defaults. The file is only read when --config is set.
func Parse(prog string, args []string, output io.Writer) (Config, error) {
	def := defaultFile()
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	var (
		configPath string
		debug      bool
		version    bool
		fc         = def
	)

	fs.StringVarP(&fc.AppID, "appid", "a", def.AppID, "custom Discord app ID")
	fs.IntVarP(&fc.Interval, "interval", "i", def.Interval, "interval in seconds for updating the presence (capped at 5s)")
	fs.StringVarP(&configPath, "config", "c", "", "path to config file, created with defaults if it does not exist")
	fs.BoolVarP(&fc.Silent, "silent", "s", def.Silent, "suppress all output")
	fs.BoolVarP(&fc.Timestamp, "timestamp", "t", def.Timestamp, "show elapsed time")
	fs.BoolVarP(&fc.SongTime, "song-time", "o", def.SongTime, "show song position as elapsed time instead of session time")
	fs.BoolVarP(&fc.NoUnknown, "no-unknown", "k", def.NoUnknown, "leave missing tags empty instead of Unknown")
	fs.StringVarP(&fc.Player, "player", "p", def.Player, "player backend: cmus, mpd or mpris")
	fs.BoolVar(&fc.Notify, "notify", def.Notify, "show a desktop notification when exiting on an error")
	fs.StringVar(&fc.PIDFile, "pidfile", def.PIDFile, "write the process id to this file")

	fs.StringVar(&fc.LargeImage, "large-image", def.LargeImage, "custom large image")
	fs.StringVar(&fc.PlayingImage, "playing-image", def.PlayingImage, "custom playing image")
	fs.StringVar(&fc.PausedImage, "paused-image", def.PausedImage, "custom paused image")

	fs.StringVar(&fc.DetailsText, "details-text", def.DetailsText, "custom details text (first line)")
	fs.StringVar(&fc.StateText, "state-text", def.StateText, "custom state text (second line)")

	fs.StringVar(&fc.ButtonOne, "button-one", def.ButtonOne, "custom text in first button")
	fs.StringVar(&fc.ButtonTwo, "button-two", def.ButtonTwo, "custom text in second button")
	fs.StringVar(&fc.ButtonURLOne, "button-url-one", def.ButtonURLOne, "custom url of first button")
	fs.StringVar(&fc.ButtonURLTwo, "button-url-two", def.ButtonURLTwo, "custom url of second button")

	fs.StringVar(&fc.Cmus.Command, "cmus-command", def.Cmus.Command, "cmus-remote binary")
	fs.StringVar(&fc.Cmus.Server, "cmus-server", def.Cmus.Server, "cmus socket path or host:port")
	fs.StringVar(&fc.Cmus.Password, "cmus-password", def.Cmus.Password, "cmus password for TCP connections")
	fs.StringVar(&fc.MPD.Network, "mpd-network", def.MPD.Network, "MPD network: tcp or unix")
	fs.StringVar(&fc.MPD.Address, "mpd-address", def.MPD.Address, "MPD host:port or socket path")
	fs.StringVar(&fc.MPD.Password, "mpd-password", def.MPD.Password, "MPD password")
	fs.StringVar(&fc.MPRIS.Player, "mpris-player", def.MPRIS.Player, "MPRIS player name, e.g. spotify")

	fs.BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	fs.BoolVarP(&version, "version", "v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if version {
		return Config{}, ErrVersion
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var path string
	if configPath != "" {
		fromFile, resolved, err := loadFile(configPath)
		if err != nil {
			return Config{}, err
		}
		fs.Visit(func(f *flag.Flag) {
			overrideFlag(&fromFile, fc, f.Name)
		})
		fc = fromFile
		path = resolved
	}

	cfg := fc.toConfig()
	cfg.Path = path
	cfg.Debug = debug
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overrideFlag copies the value of the explicitly set flag name from flags into dst
func overrideFlag(dst *fileConfig, flags fileConfig, name string) {
	switch name {
	case "appid":
		dst.AppID = flags.AppID
	case "interval":
		dst.Interval = flags.Interval
	case "silent":
		dst.Silent = flags.Silent
	case "timestamp":
		dst.Timestamp = flags.Timestamp
	case "song-time":
		dst.SongTime = flags.SongTime
	case "no-unknown":
		dst.NoUnknown = flags.NoUnknown
	case "player":
		dst.Player = flags.Player
	case "notify":
		dst.Notify = flags.Notify
	case "pidfile":
		dst.PIDFile = flags.PIDFile
	case "large-image":
		dst.LargeImage = flags.LargeImage
	case "playing-image":
		dst.PlayingImage = flags.PlayingImage
	case "paused-image":
		dst.PausedImage = flags.PausedImage
	case "details-text":
		dst.DetailsText = flags.DetailsText
	case "state-text":
		dst.StateText = flags.StateText
	case "button-one":
		dst.ButtonOne = flags.ButtonOne
	case "button-two":
		dst.ButtonTwo = flags.ButtonTwo
	case "button-url-one":
		dst.ButtonURLOne = flags.ButtonURLOne
	case "button-url-two":
		dst.ButtonURLTwo = flags.ButtonURLTwo
	case "cmus-command":
		dst.Cmus.Command = flags.Cmus.Command
	case "cmus-server":
		dst.Cmus.Server = flags.Cmus.Server
	case "cmus-password":
		dst.Cmus.Password = flags.Cmus.Password
	case "mpd-network":
		dst.MPD.Network = flags.MPD.Network
	case "mpd-address":
		dst.MPD.Address = flags.MPD.Address
	case "mpd-password":
		dst.MPD.Password = flags.MPD.Password
	case "mpris-player":
		dst.MPRIS.Player = flags.MPRIS.Player
	}
}
