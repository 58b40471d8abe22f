// Package notifier raises desktop notifications through beeep.
package notifier

import (
	"github.com/gen2brain/beeep"
	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"go.uber.org/zap"
)

// Desktop shows notifications with the platform notification daemon.
// A disabled Desktop drops every message.
type Desktop struct {
	logger  *zap.Logger
	enabled bool
	notify  func(title, message, appIcon string) error
}

// New creates a notifier that is active only when notifications are enabled in cfg
func New(logger *zap.Logger, cfg config.Config) *Desktop {
	return &Desktop{
		logger:  logger,
		enabled: cfg.Notify,
		notify:  beeep.Notify,
	}
}

// Notify shows one notification. Failures are logged and otherwise ignored.
func (d *Desktop) Notify(title, message string) {
	if !d.enabled {
		return
	}
	if err := d.notify(title, message, ""); err != nil {
		d.logger.Warn("Failed to show notification",
			zap.String("title", title),
			zap.Error(err))
	}
}

var _ domain.Notifier = (*Desktop)(nil)
