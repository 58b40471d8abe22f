package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Frame opcodes of the Discord IPC protocol
const (
	OpHandshake uint32 = 0
	OpFrame     uint32 = 1
	OpClose     uint32 = 2
	OpPing      uint32 = 3
	OpPong      uint32 = 4
)

const (
	headerSize = 8
	maxPayload = 64 * 1024
)

// WriteFrame encodes payload as JSON and writes it behind the
// little-endian opcode and length header in a single write.
func WriteFrame(w io.Writer, op uint32, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], op)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[headerSize:], body)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame and returns its opcode and raw JSON payload.
// A peer that hung up yields an error wrapping io.EOF or io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) (uint32, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}

	op := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxPayload {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read frame body: %w", err)
	}
	return op, body, nil
}

// rawJSON is a payload that is already encoded
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func decodeReply(body []byte) (reply, error) {
	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return reply{}, fmt.Errorf("decode reply: %w", err)
	}
	return r, nil
}
