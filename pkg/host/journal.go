package host

// OpKind discriminates journal operations.
type OpKind uint8

const (
	OpCreate OpKind = iota + 1
	OpSetProp
	OpRemove
	OpInsert
	OpAppend
	OpClear
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpSetProp:
		return "setProp"
	case OpRemove:
		return "remove"
	case OpInsert:
		return "insert"
	case OpAppend:
		return "append"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Op is one recorded host mutation. Nodes are addressed by element id;
// which fields are meaningful depends on the kind.
type Op struct {
	Kind OpKind

	// Node is the subject: the created, updated, removed, or inserted
	// node, or the emptied container for OpClear.
	Node uint32

	// Parent is the container for position operations.
	Parent uint32

	// Ref is the node the subject was inserted before.
	Ref uint32

	// Tag is the node kind for creates.
	Tag string

	// Name and Value carry the property for OpSetProp; Value carries the
	// text payload for text-node creates and the initial props for
	// element creates.
	Name  string
	Value any

	// Nodes lists the appended ids for OpAppend.
	Nodes []uint32
}

// Journal accumulates host mutations in order. The live server drains it
// after each reconciliation pass to encode patches; tests use it to
// assert on exact operation sequences. All access happens on the
// engine's goroutine.
type Journal struct {
	ops []Op
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) record(op Op) {
	if j == nil {
		return
	}
	j.ops = append(j.ops, op)
}

// Len returns the number of recorded operations.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	return len(j.ops)
}

// Ops returns the recorded operations without draining them.
func (j *Journal) Ops() []Op {
	if j == nil {
		return nil
	}
	out := make([]Op, len(j.ops))
	copy(out, j.ops)
	return out
}

// Drain returns the recorded operations and empties the journal.
func (j *Journal) Drain() []Op {
	if j == nil {
		return nil
	}
	ops := j.ops
	j.ops = nil
	return ops
}
