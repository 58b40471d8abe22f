// Package presence publishes player state to Discord Rich Presence.
package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/genricoloni/cmusrpc/internal/presence/ipc"
	"go.uber.org/zap"
)

const (
	// Discord rejects activity strings shorter than two characters
	minTextLen   = 2
	maxTextLen   = 128
	maxLabelLen  = 32
	paddingRune  = '\u200b'
	maxButtonNum = 2
)

// RPC is the IPC session behind Discord.
// This abstraction allows us to mock the IPC connection in tests.
//
//go:generate mockgen -destination=mocks/rpc_mock.go -package=mocks github.com/genricoloni/cmusrpc/internal/presence RPC
type RPC interface {
	Login(ctx context.Context, appID string) error
	SetActivity(ctx context.Context, activity ipc.Activity) error
	Logout() error
}

// Discord owns the IPC connection to the local Discord client
type Discord struct {
	logger    *zap.Logger
	rpc       RPC
	appID     string
	mu        sync.Mutex
	connected bool
	closeOnce sync.Once
}

// NewDiscord creates a presence publisher for the configured application id
func NewDiscord(logger *zap.Logger, cfg config.Config) *Discord {
	return newDiscord(logger, ipc.NewClient(), cfg.AppID)
}

func newDiscord(logger *zap.Logger, rpc RPC, appID string) *Discord {
	return &Discord{
		logger: logger,
		rpc:    rpc,
		appID:  appID,
	}
}

// Connect performs the IPC handshake with Discord
func (d *Discord) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnreachable, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rpc.Login(ctx, d.appID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnreachable, err)
	}
	d.connected = true

	d.logger.Debug("Discord IPC handshake complete", zap.String("appid", d.appID))
	return nil
}

// Push sends one activity update
func (d *Discord) Push(ctx context.Context, update domain.PresenceUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return fmt.Errorf("%w: not connected", domain.ErrServiceLinkLost)
	}
	if err := d.rpc.SetActivity(ctx, toActivity(update)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceLinkLost, err)
	}
	return nil
}

// Close logs out from Discord. Only the first call has an effect.
func (d *Discord) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if !d.connected {
			return
		}
		if err := d.rpc.Logout(); err != nil {
			d.logger.Debug("Discord IPC connection closed uncleanly", zap.Error(err))
		} else {
			d.logger.Debug("Discord IPC connection closed")
		}
		d.connected = false
	})
}

func toActivity(u domain.PresenceUpdate) ipc.Activity {
	activity := ipc.Activity{
		State:   fitText(u.State),
		Details: fitText(u.Details),
	}

	if u.LargeImage != "" || u.SmallImage != "" {
		activity.Assets = &ipc.Assets{
			LargeImage: u.LargeImage,
			SmallImage: u.SmallImage,
		}
	}

	if !u.Start.IsZero() {
		activity.Timestamps = &ipc.Timestamps{Start: u.Start.UnixMilli()}
	}

	for i, b := range u.Buttons {
		if i == maxButtonNum {
			break
		}
		activity.Buttons = append(activity.Buttons, ipc.Button{
			Label: truncate(b.Label, maxLabelLen),
			URL:   b.URL,
		})
	}
	return activity
}

// fitText pads one-character strings and truncates long ones.
// Empty strings are left empty so the field is omitted.
func fitText(s string) string {
	runes := []rune(s)
	switch {
	case len(runes) == 0:
		return s
	case len(runes) < minTextLen:
		return s + string(paddingRune)
	default:
		return truncate(s, maxTextLen)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var _ domain.Presence = (*Discord)(nil)
