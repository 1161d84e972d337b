package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/declarative-dom/ddom-sub003/pkg/host"
	"github.com/declarative-dom/ddom-sub003/pkg/item"
	"github.com/declarative-dom/ddom-sub003/pkg/reconcile"
)

// maxOpsPerFrame bounds the op count a decoder will accept.
const maxOpsPerFrame = 100_000

// Patch decoding errors.
var (
	ErrUnknownOp    = errors.New("live: unknown patch op")
	ErrTooManyOps   = errors.New("live: op count exceeds limit")
	ErrUnknownValue = errors.New("live: unknown value tag")
)

// PatchesFrame carries the host operations of one reconciliation pass
// for one collection. Node ids refer to the session's host trees; the
// client applies ops in order against a flat id map.
type PatchesFrame struct {
	Collection string
	Seq        uint64
	Ops        []host.Op
}

// EncodePatches serializes a patches frame payload.
func EncodePatches(pf *PatchesFrame) ([]byte, error) {
	e := NewEncoder()
	e.WriteString(pf.Collection)
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Ops)))
	for _, op := range pf.Ops {
		if err := encodeOp(e, op); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

// DecodePatches parses a patches frame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)

	collection, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	seq, err := d.ReadUvarint()
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

	pf := &PatchesFrame{
		Collection: collection,
		Seq:        seq,
		Ops:        make([]host.Op, 0, count),
	}
	for i := uint64(0); i < count; i++ {
		op, err := decodeOp(d)
		if err != nil {
			return nil, err
		}
		pf.Ops = append(pf.Ops, op)
	}
	return pf, nil
}

func encodeOp(e *Encoder, op host.Op) error {
	e.WriteByte(byte(op.Kind))

	switch op.Kind {
	case host.OpCreate:
		e.WriteUvarint(uint64(op.Node))
		e.WriteString(op.Tag)
		return writeValue(e, op.Value)

	case host.OpSetProp:
		e.WriteUvarint(uint64(op.Node))
		e.WriteString(op.Name)
		return writeValue(e, op.Value)

	case host.OpRemove, host.OpClear:
		e.WriteUvarint(uint64(op.Node))
		return nil

	case host.OpInsert:
		e.WriteUvarint(uint64(op.Node))
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(op.Ref))
		return nil

	case host.OpAppend:
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(len(op.Nodes)))
		for _, n := range op.Nodes {
			e.WriteUvarint(uint64(n))
		}
		return nil

	default:
		return fmt.Errorf("%w: %d", ErrUnknownOp, op.Kind)
	}
}

func decodeOp(d *Decoder) (host.Op, error) {
	kind, err := d.ReadByte()
	if err != nil {
		return host.Op{}, err
	}

	op := host.Op{Kind: host.OpKind(kind)}
	switch op.Kind {
	case host.OpCreate:
		node, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		tag, err := d.ReadString()
		if err != nil {
			return op, err
		}
		value, err := readValue(d)
		if err != nil {
			return op, err
		}
		op.Node = uint32(node)
		op.Tag = tag
		op.Value = value
		return op, nil

	case host.OpSetProp:
		node, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		name, err := d.ReadString()
		if err != nil {
			return op, err
		}
		value, err := readValue(d)
		if err != nil {
			return op, err
		}
		op.Node = uint32(node)
		op.Name = name
		op.Value = value
		return op, nil

	case host.OpRemove, host.OpClear:
		node, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		op.Node = uint32(node)
		return op, nil

	case host.OpInsert:
		node, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		parent, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		ref, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		op.Node = uint32(node)
		op.Parent = uint32(parent)
		op.Ref = uint32(ref)
		return op, nil

	case host.OpAppend:
		parent, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		count, err := d.ReadUvarint()
		if err != nil {
			return op, err
		}
		if count > maxOpsPerFrame {
			return op, ErrTooManyOps
		}
		op.Parent = uint32(parent)
		op.Nodes = make([]uint32, 0, count)
		for i := uint64(0); i < count; i++ {
			n, err := d.ReadUvarint()
			if err != nil {
				return op, err
			}
			op.Nodes = append(op.Nodes, uint32(n))
		}
		return op, nil

	default:
		return op, fmt.Errorf("%w: %d", ErrUnknownOp, kind)
	}
}

// Value tags for the tagged property payload encoding.
const (
	valNil    = 0x00
	valTrue   = 0x01
	valFalse  = 0x02
	valNumber = 0x03
	valString = 0x04
	valJSON   = 0x05
)

// writeValue encodes a property payload. Strings, booleans, and
// numbers get compact tags; maps, slices, and anything else fall back
// to a JSON blob. Numeric Go types are normalized to float64 on the
// wire, matching what JSON sources deliver.
func writeValue(e *Encoder, v any) error {
	switch val := v.(type) {
	case nil:
		e.WriteByte(valNil)
		return nil
	case bool:
		if val {
			e.WriteByte(valTrue)
		} else {
			e.WriteByte(valFalse)
		}
		return nil
	case string:
		e.WriteByte(valString)
		e.WriteString(val)
		return nil
	}

	if f, ok := item.Number(v); ok {
		e.WriteByte(valNumber)
		e.WriteFloat64(f)
		return nil
	}

	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("live: encode value: %w", err)
	}
	e.WriteByte(valJSON)
	e.WriteLenBytes(blob)
	return nil
}

// readValue decodes a property payload.
func readValue(d *Decoder) (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case valNil:
		return nil, nil
	case valTrue:
		return true, nil
	case valFalse:
		return false, nil
	case valNumber:
		return d.ReadFloat64()
	case valString:
		return d.ReadString()
	case valJSON:
		blob, err := d.ReadLenBytes()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(blob, &v); err != nil {
			return nil, fmt.Errorf("live: decode value: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownValue, tag)
	}
}

// splitOps cuts a pass's ops into runs that each fit one frame payload
// alongside the patches header. Ops stay in order across the runs.
func splitOps(collection string, ops []host.Op) ([][]host.Op, error) {
	// Collection name, seq, and count lead every chunk payload.
	header := len(collection) + 2 + 10 + 10
	budget := MaxPayloadSize - header

	var chunks [][]host.Op
	var current []host.Op
	used := 0

	scratch := NewEncoder()
	for _, op := range ops {
		scratch.Reset()
		if err := encodeOp(scratch, op); err != nil {
			return nil, err
		}
		n := scratch.Len()
		if used+n > budget && len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			used = 0
		}
		current = append(current, op)
		used += n
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

// rebuildOps synthesizes the op sequence that reconstructs a host
// tree from scratch: clear the container, then create and append
// depth first. Used for resync when the patch history has a gap.
func rebuildOps(root *host.Element) []host.Op {
	ops := []host.Op{{Kind: host.OpClear, Node: root.ID()}}
	appendSubtree(root, &ops)
	return ops
}

func appendSubtree(parent *host.Element, ops *[]host.Op) {
	children := parent.Children()
	if len(children) == 0 {
		return
	}

	ids := make([]uint32, 0, len(children))
	for _, c := range children {
		*ops = append(*ops, createOp(c))
		ids = append(ids, c.ID())
	}
	*ops = append(*ops, host.Op{Kind: host.OpAppend, Parent: parent.ID(), Nodes: ids})

	for _, c := range children {
		appendSubtree(c, ops)
	}
}

func createOp(e *host.Element) host.Op {
	if e.Tag() == host.TextTag {
		return host.Op{Kind: host.OpCreate, Node: e.ID(), Tag: host.TextTag, Value: e.Text()}
	}

	props := e.Props()
	if text := e.Text(); text != nil {
		props[reconcile.TextProperty] = text
	}
	return host.Op{Kind: host.OpCreate, Node: e.ID(), Tag: e.Tag(), Value: props}
}
