// Package ipc speaks the local Discord RPC protocol over the discord-ipc
// unix socket. Every socket failure is returned to the caller.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	protocolVersion = 1
	defaultTimeout  = 5 * time.Second

	cmdSetActivity = "SET_ACTIVITY"
	evtReady       = "READY"
	evtError       = "ERROR"
)

var (
	// ErrNotConnected is returned when no handshake has been made
	ErrNotConnected = errors.New("not connected to discord")
	// ErrClosed is returned when Discord sent a close frame
	ErrClosed = errors.New("discord closed the connection")
)

// Dialer opens the raw connection to Discord
type Dialer func(ctx context.Context) (net.Conn, error)

// Client is a single IPC session. Requests are serialized.
type Client struct {
	dial    Dialer
	timeout time.Duration
	pid     int
	nonce   func() string

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a client that connects to the local Discord socket
func NewClient() *Client {
	return NewClientWithDialer(DialSocket)
}

// NewClientWithDialer creates a client using dial to open the connection
func NewClientWithDialer(dial Dialer) *Client {
	return &Client{
		dial:    dial,
		timeout: defaultTimeout,
		pid:     os.Getpid(),
		nonce:   uuid.NewString,
	}
}

// Login connects and performs the handshake for the application appID.
// It returns once Discord has dispatched READY.
func (c *Client) Login(ctx context.Context, appID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial discord: %w", err)
	}

	hs := handshake{Version: protocolVersion, ClientID: appID}
	err = roundTrip(ctx, conn, c.timeout, OpHandshake, hs, func(r reply) bool {
		return r.Evt == evtReady
	})
	if err != nil {
		return multierr.Append(fmt.Errorf("handshake: %w", err), conn.Close())
	}

	c.conn = conn
	return nil
}

// SetActivity replaces the presence and waits for Discord to acknowledge it
func (c *Client) SetActivity(ctx context.Context, activity Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	nonce := c.nonce()
	cmd := command{
		Cmd:   cmdSetActivity,
		Args:  activityArgs{PID: c.pid, Activity: &activity},
		Nonce: nonce,
	}
	return roundTrip(ctx, c.conn, c.timeout, OpFrame, cmd, func(r reply) bool {
		return r.Nonce == nonce
	})
}

// Logout sends a close frame and closes the connection
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err := WriteFrame(conn, OpClose, struct{}{})
	return multierr.Append(err, conn.Close())
}

// roundTrip writes one frame and reads replies until done accepts one.
// Pings are answered on the way; errors and close frames end the exchange.
func roundTrip(
	ctx context.Context,
	conn net.Conn,
	timeout time.Duration,
	op uint32,
	payload any,
	done func(reply) bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := bindDeadline(ctx, conn, timeout)
	defer release()

	if err := WriteFrame(conn, op, payload); err != nil {
		return err
	}

	for {
		op, body, err := ReadFrame(conn)
		if err != nil {
			return err
		}

		switch op {
		case OpPing:
			if err := WriteFrame(conn, OpPong, rawJSON(body)); err != nil {
				return err
			}
		case OpClose:
			r, _ := decodeReply(body)
			return fmt.Errorf("%w: %d %s", ErrClosed, r.Code, r.Message)
		case OpFrame:
			r, err := decodeReply(body)
			if err != nil {
				return err
			}
			if r.Evt == evtError {
				return replyError(r)
			}
			if done(r) {
				return nil
			}
		}
	}
}

// bindDeadline limits the exchange to timeout and aborts it when ctx ends
func bindDeadline(ctx context.Context, conn net.Conn, timeout time.Duration) (release func()) {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}

func replyError(r reply) error {
	if r.Data == nil {
		return fmt.Errorf("discord rejected %s", r.Cmd)
	}
	return fmt.Errorf("discord rejected %s: %d %s", r.Cmd, r.Data.Code, r.Data.Message)
}
