package probe

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"go.uber.org/zap"
)

// CmusProbe queries cmus with "cmus-remote -Q"
type CmusProbe struct {
	logger      *zap.Logger
	runner      Runner
	command     string
	args        []string
	placeholder string
}

// NewCmusProbe creates a prober for cmus
func NewCmusProbe(logger *zap.Logger, cfg config.CmusConfig, runner Runner, placeholder string) *CmusProbe {
	command := cfg.Command
	if command == "" {
		command = "cmus-remote"
	}

	var args []string
	if cfg.Server != "" {
		args = append(args, "--server", cfg.Server)
		if cfg.Password != "" {
			args = append(args, "--passwd", cfg.Password)
		}
	}
	args = append(args, "-Q")

	return &CmusProbe{
		logger:      logger,
		runner:      runner,
		command:     command,
		args:        args,
		placeholder: placeholder,
	}
}

// Name returns the backend name
func (p *CmusProbe) Name() string {
	return "cmus"
}

// Probe runs cmus-remote and parses its status output
func (p *CmusProbe) Probe(ctx context.Context) (domain.Status, error) {
	out, err := p.runner.Run(ctx, p.command, p.args...)
	if err != nil {
		p.logger.Debug("cmus query failed", zap.Error(err))
		return domain.Status{}, unreachable("cmus query: %v", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return domain.Status{}, unreachable("cmus returned no output")
	}

	status := parseCmus(out, p.placeholder)
	applyPathFallback(&status, p.placeholder)
	return status, nil
}

// Close is a no-op, every probe runs its own process
func (p *CmusProbe) Close() error {
	return nil
}

// parseCmus converts cmus-remote -Q output into a status.
// Only the artist, album, title, genre and date tags are kept.
func parseCmus(out []byte, placeholder string) domain.Status {
	s := domain.Status{
		Artist: placeholder,
		Album:  placeholder,
		Title:  placeholder,
		Genre:  placeholder,
		Date:   placeholder,
	}

	// cmus prints whole tag values on one line, so lines have no length limit
	for line := range strings.Lines(string(out)) {
		line = strings.TrimRight(line, "\r\n")
		keyword, rest, _ := strings.Cut(line, " ")

		switch keyword {
		case "status":
			s.Playing = rest == "playing"
		case "file":
			s.Path = rest
		case "tag":
			tag, value, _ := strings.Cut(rest, " ")
			switch tag {
			case "artist":
				s.Artist = value
			case "album":
				s.Album = value
			case "title":
				s.Title = value
			case "genre":
				s.Genre = value
			case "date":
				s.Date = value
			}
		case "duration":
			s.Duration = parseSeconds(rest)
		case "position":
			s.Position = parseSeconds(rest)
		}
	}
	return s
}

// parseSeconds parses integer or fractional seconds; invalid or negative values yield 0
func parseSeconds(v string) int {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}
