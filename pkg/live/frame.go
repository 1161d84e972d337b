package live

import (
	"errors"
	"io"
)

// FrameType discriminates the messages on a live connection.
type FrameType uint8

const (
	// FrameHello is the server greeting after the upgrade, carrying
	// the session id and the collection roster.
	FrameHello FrameType = 0x00

	// FramePatches carries one encoded reconciliation pass.
	FramePatches FrameType = 0x01

	// FrameControl carries pings, pongs, resync requests, and closes.
	FrameControl FrameType = 0x02

	// FrameAck acknowledges received patch sequences (client to
	// server).
	FrameAck FrameType = 0x03

	// FrameError reports a coded failure before the server gives up
	// on the connection.
	FrameError FrameType = 0x04
)

// String returns the frame type name.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FramePatches:
		return "Patches"
	case FrameControl:
		return "Control"
	case FrameAck:
		return "Ack"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Valid reports whether the frame type is one the protocol defines.
func (ft FrameType) Valid() bool {
	return ft <= FrameError
}

// FrameFlags carry per-frame processing hints.
type FrameFlags uint8

// FlagFinal marks the last frame of a multi-frame batch. A pass whose
// patches exceed one frame is split; only the final chunk has it set.
const FlagFinal FrameFlags = 0x01

// Has reports whether flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

const (
	// FrameHeaderSize is the fixed header length: type, flags, and a
	// big-endian uint16 payload length.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload a frame can carry.
	MaxPayloadSize = 65535
)

// Framing errors.
var (
	ErrFrameTooShort    = errors.New("live: frame shorter than header")
	ErrFrameTooLarge    = errors.New("live: payload exceeds frame capacity")
	ErrInvalidFrameType = errors.New("live: invalid frame type")
	ErrFrameTruncated   = errors.New("live: frame payload truncated")
)

// Frame is one wire message.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags set.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// NewFrameWithFlags creates a frame with the given flags.
func NewFrameWithFlags(ft FrameType, flags FrameFlags, payload []byte) *Frame {
	return &Frame{Type: ft, Flags: flags, Payload: payload}
}

// Encode serializes the frame, header first.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(len(f.Payload) >> 8)
	buf[3] = byte(len(f.Payload))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf, nil
}

// DecodeFrame parses a complete frame from data. The payload slice
// references data.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, ErrFrameTooShort
	}

	ft := FrameType(data[0])
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}

	length := int(data[2])<<8 | int(data[3])
	if len(data) < FrameHeaderSize+length {
		return nil, ErrFrameTruncated
	}

	return &Frame{
		Type:    ft,
		Flags:   FrameFlags(data[1]),
		Payload: data[FrameHeaderSize : FrameHeaderSize+length],
	}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	ft := FrameType(header[0])
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}

	length := int(header[2])<<8 | int(header[3])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	return &Frame{
		Type:    ft,
		Flags:   FrameFlags(header[1]),
		Payload: payload,
	}, nil
}

// WriteFrame writes a frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
