package probe

import (
	"context"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"go.uber.org/zap"
)

// mpdClient is the subset of *mpd.Client used by MPDProbe
type mpdClient interface {
	Status() (mpd.Attrs, error)
	CurrentSong() (mpd.Attrs, error)
	Close() error
}

type mpdDialer func(network, addr, password string) (mpdClient, error)

func dialMPD(network, addr, password string) (mpdClient, error) {
	var (
		c   *mpd.Client
		err error
	)
	if password != "" {
		c, err = mpd.DialAuthenticated(network, addr, password)
	} else {
		c, err = mpd.Dial(network, addr)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MPDProbe queries a Music Player Daemon.
// Every probe uses a short-lived connection, so a restarted daemon is picked
// up without reconnect logic.
type MPDProbe struct {
	logger      *zap.Logger
	cfg         config.MPDConfig
	dial        mpdDialer
	placeholder string
}

// NewMPDProbe creates a prober for MPD
func NewMPDProbe(logger *zap.Logger, cfg config.MPDConfig, placeholder string) *MPDProbe {
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	return &MPDProbe{
		logger:      logger,
		cfg:         cfg,
		dial:        dialMPD,
		placeholder: placeholder,
	}
}

// Name returns the backend name
func (p *MPDProbe) Name() string {
	return "mpd"
}

// Probe reads the player status and the current song
func (p *MPDProbe) Probe(ctx context.Context) (domain.Status, error) {
	if err := ctx.Err(); err != nil {
		return domain.Status{}, unreachable("mpd: %v", err)
	}

	client, err := p.dial(p.cfg.Network, p.cfg.Address, p.cfg.Password)
	if err != nil {
		return domain.Status{}, unreachable("dial mpd %s: %v", p.cfg.Address, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			p.logger.Debug("Failed to close MPD connection", zap.Error(err))
		}
	}()

	status, err := client.Status()
	if err != nil {
		return domain.Status{}, unreachable("mpd status: %v", err)
	}
	song, err := client.CurrentSong()
	if err != nil {
		return domain.Status{}, unreachable("mpd currentsong: %v", err)
	}

	s := parseMPD(status, song, p.placeholder)
	applyPathFallback(&s, p.placeholder)
	return s, nil
}

// Close is a no-op, connections are closed after each probe
func (p *MPDProbe) Close() error {
	return nil
}

func parseMPD(status, song mpd.Attrs, placeholder string) domain.Status {
	s := domain.Status{
		Path:     song["file"],
		Playing:  status["state"] == "play",
		Artist:   attrOr(song, "Artist", placeholder),
		Album:    attrOr(song, "Album", placeholder),
		Title:    attrOr(song, "Title", placeholder),
		Genre:    attrOr(song, "Genre", placeholder),
		Date:     attrOr(song, "Date", placeholder),
		Position: parseSeconds(status["elapsed"]),
	}

	switch {
	case status["duration"] != "":
		s.Duration = parseSeconds(status["duration"])
	case song["duration"] != "":
		s.Duration = parseSeconds(song["duration"])
	default:
		s.Duration = parseSeconds(song["Time"])
	}
	return s
}

func attrOr(attrs mpd.Attrs, key, fallback string) string {
	if v, ok := attrs[key]; ok && v != "" {
		return v
	}
	return fallback
}
