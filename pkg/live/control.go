package live

import (
	"errors"
	"fmt"
)

// ControlType identifies a control message.
type ControlType uint8

const (
	ControlPing   ControlType = 0x01 // liveness probe, either direction
	ControlPong   ControlType = 0x02 // answer to a ping
	ControlResync ControlType = 0x10 // client asks for patches after its last seq
	ControlClose  ControlType = 0x20 // orderly goodbye
)

// String returns the control type name.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlResync:
		return "Resync"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason says why a session is going away.
type CloseReason uint8

const (
	CloseNormal   CloseReason = 0x00
	CloseExpired  CloseReason = 0x01
	CloseShutdown CloseReason = 0x02
	CloseError    CloseReason = 0x03
)

// String returns the close reason name.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseExpired:
		return "Expired"
	case CloseShutdown:
		return "Shutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// PingPong is the payload for ping and pong messages. The timestamp is
// echoed back so the sender can measure round trips.
type PingPong struct {
	Timestamp uint64
}

// ResyncRequest asks the server for everything after LastSeq.
type ResyncRequest struct {
	LastSeq uint64
}

// CloseMessage announces an orderly close.
type CloseMessage struct {
	Reason  CloseReason
	Message string
}

// Control codec errors.
var (
	ErrUnknownControl = errors.New("live: unknown control type")
	ErrControlPayload = errors.New("live: control payload type mismatch")
)

// EncodeControl serializes a control message payload. The payload type
// must match the control type: *PingPong for ping and pong,
// *ResyncRequest for resync, *CloseMessage for close.
func EncodeControl(ct ControlType, payload any) ([]byte, error) {
	e := NewEncoder()
	e.WriteByte(byte(ct))

	switch ct {
	case ControlPing, ControlPong:
		pp, ok := payload.(*PingPong)
		if !ok {
			return nil, ErrControlPayload
		}
		e.WriteUvarint(pp.Timestamp)

	case ControlResync:
		rr, ok := payload.(*ResyncRequest)
		if !ok {
			return nil, ErrControlPayload
		}
		e.WriteUvarint(rr.LastSeq)

	case ControlClose:
		cm, ok := payload.(*CloseMessage)
		if !ok {
			return nil, ErrControlPayload
		}
		e.WriteByte(byte(cm.Reason))
		e.WriteString(cm.Message)

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownControl, ct)
	}

	return e.Bytes(), nil
}

// DecodeControl parses a control message payload. The returned value
// is one of *PingPong, *ResyncRequest, or *CloseMessage.
func DecodeControl(data []byte) (ControlType, any, error) {
	d := NewDecoder(data)

	b, err := d.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	ct := ControlType(b)

	switch ct {
	case ControlPing, ControlPong:
		ts, err := d.ReadUvarint()
		if err != nil {
			return ct, nil, err
		}
		return ct, &PingPong{Timestamp: ts}, nil

	case ControlResync:
		seq, err := d.ReadUvarint()
		if err != nil {
			return ct, nil, err
		}
		return ct, &ResyncRequest{LastSeq: seq}, nil

	case ControlClose:
		reason, err := d.ReadByte()
		if err != nil {
			return ct, nil, err
		}
		msg, err := d.ReadString()
		if err != nil {
			return ct, nil, err
		}
		return ct, &CloseMessage{Reason: CloseReason(reason), Message: msg}, nil

	default:
		return ct, nil, fmt.Errorf("%w: %d", ErrUnknownControl, ct)
	}
}

// Ack acknowledges received patches. Window reports how many more
// frames the client can buffer, for lag diagnostics.
type Ack struct {
	LastSeq uint64
	Window  uint64
}

// EncodeAck serializes an ack payload.
func EncodeAck(ack *Ack) []byte {
	e := NewEncoder()
	e.WriteUvarint(ack.LastSeq)
	e.WriteUvarint(ack.Window)
	return e.Bytes()
}

// DecodeAck parses an ack payload.
func DecodeAck(data []byte) (*Ack, error) {
	d := NewDecoder(data)

	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	window, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return &Ack{LastSeq: lastSeq, Window: window}, nil
}

// ErrorFrame reports a coded failure to the client. Code is a
// diagnostic code; the docs URL for it is derivable client side.
type ErrorFrame struct {
	Code    string
	Message string
}

// EncodeError serializes an error payload.
func EncodeError(ef *ErrorFrame) []byte {
	e := NewEncoder()
	e.WriteString(ef.Code)
	e.WriteString(ef.Message)
	return e.Bytes()
}

// DecodeError parses an error payload.
func DecodeError(data []byte) (*ErrorFrame, error) {
	d := NewDecoder(data)

	code, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ErrorFrame{Code: code, Message: msg}, nil
}
