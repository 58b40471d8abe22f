// Package probe reads the current status of a music player.
//
// Three backends are available: cmus through cmus-remote, MPD through its
// protocol and any MPRIS player through the D-Bus session bus. All of them
// return a fresh domain.Status per call and report an unreachable player as
// an error wrapping domain.ErrPlayerUnreachable.
package probe

import (
	"fmt"
	"path"
	"strings"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"go.uber.org/zap"
)

// New creates the prober selected by cfg.Player
func New(logger *zap.Logger, cfg config.Config) (domain.Prober, error) {
	placeholder := cfg.Placeholder()

	switch cfg.Player {
	case config.PlayerCmus:
		return NewCmusProbe(logger, cfg.Cmus, NewExecRunner(logger), placeholder), nil
	case config.PlayerMPD:
		return NewMPDProbe(logger, cfg.MPD, placeholder), nil
	case config.PlayerMPRIS:
		return NewMprisProbe(logger, cfg.MPRIS, placeholder), nil
	default:
		return nil, fmt.Errorf("unsupported player %q", cfg.Player)
	}
}

func unreachable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrPlayerUnreachable, fmt.Sprintf(format, args...))
}

// applyPathFallback derives artist and title from the track path when either
// of them is missing. It is best-effort: files that do not follow an
// "Artist - Title" naming convention produce odd results.
func applyPathFallback(s *domain.Status, placeholder string) {
	if s.Path == "" {
		return
	}
	if s.Artist != placeholder && s.Title != placeholder {
		return
	}
	s.Artist, s.Title = titleFromPath(s.Path, placeholder)
}

// titleFromPath splits "…/Artist - Title.ext" into artist and title.
// Without a separator in the file name the parent directory is used as artist.
func titleFromPath(p, placeholder string) (artist, title string) {
	segments := strings.Split(strings.Trim(stripExt(p), "/"), "/")
	name := segments[len(segments)-1]

	tokens := strings.Split(name, " - ")
	if len(tokens) < 2 {
		tokens = strings.Split(name, "-")
	}
	if len(tokens) >= 2 {
		return tokens[0], tokens[1]
	}

	if len(segments) < 2 {
		return placeholder, name
	}
	return segments[len(segments)-2], name
}

// stripExt removes the extension of the last path element.
// Leading dots of a file name do not start an extension.
func stripExt(p string) string {
	base := path.Base(p)
	trimmed := strings.TrimLeft(base, ".")
	dot := strings.LastIndex(trimmed, ".")
	if dot < 0 || strings.HasSuffix(p, "/") {
		return p
	}
	return p[:len(p)-(len(trimmed)-dot)]
}
