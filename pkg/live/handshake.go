package live

// HelloFrame is the first frame after the upgrade. It names the
// session and lists the collections with their container ids, so the
// client can pre-register the patch targets.
type HelloFrame struct {
	SessionID string

	// Resumed is true when the server recognized the session id and
	// kept its state; the patches that follow continue the old
	// stream.
	Resumed bool

	// LastSeq is the highest patch sequence the server had sent when
	// the hello was written, zero for a fresh session.
	LastSeq uint64

	Collections []HelloCollection
}

// HelloCollection describes one streamed collection.
type HelloCollection struct {
	Name string

	// Root is the container element id patches for this collection
	// hang off.
	Root uint32
}

// EncodeHello serializes a hello payload.
func EncodeHello(h *HelloFrame) []byte {
	e := NewEncoder()
	e.WriteString(h.SessionID)
	e.WriteBool(h.Resumed)
	e.WriteUvarint(h.LastSeq)
	e.WriteUvarint(uint64(len(h.Collections)))
	for _, c := range h.Collections {
		e.WriteString(c.Name)
		e.WriteUvarint(uint64(c.Root))
	}
	return e.Bytes()
}

// DecodeHello parses a hello payload.
func DecodeHello(data []byte) (*HelloFrame, error) {
	d := NewDecoder(data)

	id, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	resumed, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > maxOpsPerFrame {
		return nil, ErrTooManyOps
	}

	h := &HelloFrame{
		SessionID:   id,
		Resumed:     resumed,
		LastSeq:     lastSeq,
		Collections: make([]HelloCollection, 0, count),
	}
	for i := uint64(0); i < count; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		root, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		h.Collections = append(h.Collections, HelloCollection{
			Name: name,
			Root: uint32(root),
		})
	}
	return h, nil
}
