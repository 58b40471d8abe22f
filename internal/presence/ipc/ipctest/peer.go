// Package ipctest provides a scripted Discord peer for IPC tests.
package ipctest

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/genricoloni/cmusrpc/internal/presence/ipc"
)

// Request is a frame received from the client. Handshake fields and
// command fields share the struct, only one set is filled.
type Request struct {
	Op uint32 `json:"-"`

	Version  int    `json:"v"`
	ClientID string `json:"client_id"`

	Cmd   string `json:"cmd"`
	Nonce string `json:"nonce"`
	Args  struct {
		PID      int           `json:"pid"`
		Activity *ipc.Activity `json:"activity"`
	} `json:"args"`
}

// Peer is the Discord side of a connection
type Peer struct {
	conn net.Conn
}

// Pipe returns the client end of an in-memory connection and the peer
// serving its other end.
func Pipe() (net.Conn, *Peer) {
	client, server := net.Pipe()
	return client, NewPeer(server)
}

// NewPeer wraps an accepted connection
func NewPeer(conn net.Conn) *Peer {
	return &Peer{conn: conn}
}

// Receive reads one frame from the client
func (p *Peer) Receive() (Request, error) {
	op, body, err := ipc.ReadFrame(p.conn)
	if err != nil {
		return Request{}, err
	}
	var r Request
	if err := json.Unmarshal(body, &r); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	r.Op = op
	return r, nil
}

// Send writes one frame to the client
func (p *Peer) Send(op uint32, payload any) error {
	return ipc.WriteFrame(p.conn, op, payload)
}

// Handshake accepts the client handshake and dispatches READY
func (p *Peer) Handshake() (Request, error) {
	r, err := p.Receive()
	if err != nil {
		return Request{}, err
	}
	if r.Op != ipc.OpHandshake {
		return r, fmt.Errorf("expected handshake, got opcode %d", r.Op)
	}
	return r, p.Send(ipc.OpFrame, map[string]any{
		"cmd":  "DISPATCH",
		"evt":  "READY",
		"data": map[string]any{"v": 1},
	})
}

// Acknowledge answers the next command with a success response
func (p *Peer) Acknowledge() (Request, error) {
	r, err := p.Receive()
	if err != nil {
		return Request{}, err
	}
	return r, p.Send(ipc.OpFrame, map[string]any{
		"cmd":   r.Cmd,
		"nonce": r.Nonce,
		"evt":   nil,
		"data":  r.Args.Activity,
	})
}

// Reject answers the next command with an ERROR event
func (p *Peer) Reject(code int, message string) (Request, error) {
	r, err := p.Receive()
	if err != nil {
		return Request{}, err
	}
	return r, p.Send(ipc.OpFrame, map[string]any{
		"cmd":   r.Cmd,
		"nonce": r.Nonce,
		"evt":   "ERROR",
		"data":  map[string]any{"code": code, "message": message},
	})
}

// Close hangs up, like a Discord client that quit
func (p *Peer) Close() error {
	return p.conn.Close()
}
