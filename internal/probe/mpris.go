package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	propStatus      = "org.mpris.MediaPlayer2.Player.PlaybackStatus"
	propMetadata    = "org.mpris.MediaPlayer2.Player.Metadata"
	propPosition    = "org.mpris.MediaPlayer2.Player.Position"

	microsecondsPerSecond = 1_000_000
)

// MprisProbe reads player state through the MPRIS D-Bus interface
type MprisProbe struct {
	logger      *zap.Logger
	mu          sync.Mutex
	conn        DBusClient // Interface for testability
	connect     func() (DBusClient, error)
	player      string
	placeholder string
}

// NewMprisProbe creates a prober for MPRIS players.
// The session bus connection is opened on the first probe.
func NewMprisProbe(logger *zap.Logger, cfg config.MPRISConfig, placeholder string) *MprisProbe {
	player := strings.TrimSpace(cfg.Player)
	if player != "" && !strings.HasPrefix(player, mprisPrefix) {
		player = mprisPrefix + player
	}
	return &MprisProbe{
		logger: logger,
		connect: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
		player:      player,
		placeholder: placeholder,
	}
}

// Name returns the backend name
func (p *MprisProbe) Name() string {
	return "mpris"
}

// Probe reads PlaybackStatus, Metadata and Position of the selected player
func (p *MprisProbe) Probe(ctx context.Context) (domain.Status, error) {
	if err := ctx.Err(); err != nil {
		return domain.Status{}, unreachable("mpris: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := p.connect()
		if err != nil {
			return domain.Status{}, unreachable("session bus connection failed: %v", err)
		}
		p.conn = conn
		p.logger.Debug("Connected to session bus")
	}

	name, err := p.resolvePlayer()
	if err != nil {
		return domain.Status{}, unreachable("%v", err)
	}

	statusVariant, err := p.conn.GetProperty(name, mprisObjectPath, propStatus)
	if err != nil {
		return domain.Status{}, unreachable("get playback status of %s: %v", name, err)
	}
	status, ok := statusVariant.Value().(string)
	if !ok {
		return domain.Status{}, unreachable("invalid playback status format from %s", name)
	}

	// Players with nothing loaded may send an empty or non-map variant
	var metadata map[string]dbus.Variant
	metaVariant, err := p.conn.GetProperty(name, mprisObjectPath, propMetadata)
	if err != nil {
		return domain.Status{}, unreachable("get metadata of %s: %v", name, err)
	}
	if m, ok := metaVariant.Value().(map[string]dbus.Variant); ok {
		metadata = m
	} else {
		p.logger.Debug("Metadata variant is not a map", zap.String("player", name))
	}

	s := parseMetadata(metadata, status, p.placeholder)

	// Position is optional in MPRIS, players without it report 0
	if posVariant, err := p.conn.GetProperty(name, mprisObjectPath, propPosition); err == nil {
		if us, ok := toInt64(posVariant.Value()); ok {
			s.Position = microsToSeconds(us)
		}
	}

	applyPathFallback(&s, p.placeholder)
	return s, nil
}

// Close closes the session bus connection, if any
func (p *MprisProbe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// resolvePlayer returns the configured bus name or the first MPRIS player on the bus
func (p *MprisProbe) resolvePlayer() (string, error) {
	if p.player != "" {
		return p.player, nil
	}

	names, err := p.conn.ListNames()
	if err != nil {
		return "", fmt.Errorf("failed to list bus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no MPRIS player on the session bus")
}

// parseMetadata converts MPRIS metadata to a status
func parseMetadata(metadata map[string]dbus.Variant, status, placeholder string) domain.Status {
	s := domain.Status{
		Playing: status == "Playing",
		Artist:  placeholder,
		Album:   placeholder,
		Title:   placeholder,
		Genre:   placeholder,
		Date:    placeholder,
	}

	if metadata == nil {
		return s
	}

	if v, ok := metadata["xesam:url"]; ok {
		if raw, ok := v.Value().(string); ok {
			s.Path = pathFromURL(raw)
		}
	}
	// Streams without a URL still carry a track id that changes per track
	if s.Path == "" {
		if v, ok := metadata["mpris:trackid"]; ok {
			switch id := v.Value().(type) {
			case dbus.ObjectPath:
				s.Path = string(id)
			case string:
				s.Path = id
			}
		}
	}

	if v := firstString(metadata, "xesam:artist"); v != "" {
		s.Artist = v
	}
	if v := firstString(metadata, "xesam:album"); v != "" {
		s.Album = v
	}
	if v := firstString(metadata, "xesam:title"); v != "" {
		s.Title = v
	}
	if v := firstString(metadata, "xesam:genre"); v != "" {
		s.Genre = v
	}
	if v := firstString(metadata, "xesam:contentCreated"); v != "" {
		s.Date = v
	}

	if v, ok := metadata["mpris:length"]; ok {
		if us, ok := toInt64(v.Value()); ok {
			s.Duration = microsToSeconds(us)
		}
	}
	return s
}

// firstString reads a string or the first element of a string list
func firstString(metadata map[string]dbus.Variant, key string) string {
	v, ok := metadata[key]
	if !ok {
		return ""
	}
	switch value := v.Value().(type) {
	case string:
		return value
	case []string:
		if len(value) > 0 {
			return value[0]
		}
	}
	return ""
}

// pathFromURL turns file:// URLs into local paths and keeps other URLs as-is
func pathFromURL(raw string) string {
	if !strings.HasPrefix(raw, "file://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func microsToSeconds(us int64) int {
	if us <= 0 {
		return 0
	}
	return int(us / microsecondsPerSecond)
}
