package domain

import "context"

// Prober queries the music player for its current status.
// Implementations exist for cmus (subprocess), MPD and MPRIS (D-Bus).
//
//go:generate mockgen -destination=mocks/prober_mock.go -package=mocks github.com/genricoloni/cmusrpc/internal/domain Prober,Presence,Notifier
type Prober interface {
	// Probe returns a fresh status snapshot.
	// A non-nil error means the player is unreachable and wraps ErrPlayerUnreachable
	Probe(ctx context.Context) (Status, error)

	// Close releases any connection held by the backend
	Close() error

	// Name returns the backend name used in log messages
	Name() string
}

// Presence publishes updates to the rich presence service
type Presence interface {
	// Connect performs the initial handshake.
	// Failure wraps ErrServiceUnreachable
	Connect(ctx context.Context) error

	// Push sends one update. Failure wraps ErrServiceLinkLost
	Push(ctx context.Context, update PresenceUpdate) error

	// Close releases the connection. It is safe to call more than once
	Close()
}

// Notifier raises desktop notifications for terminal failures
type Notifier interface {
	Notify(title, message string)
}
