package cell

import (
	"errors"
	"fmt"
)

// ErrCycle reports that a derived cell read itself, directly or through
// other cells, during its own evaluation. The cell keeps its memoized
// value instead of recursing.
var ErrCycle = errors.New("cell: dependency cycle")

// EvalError wraps a failure inside a derived cell's compute function or a
// watcher's notify callback. The owning cell keeps its previous value; the
// error is delivered on the graph's error channel and evaluation retries
// on the next dependency change.
type EvalError struct {
	// CellID identifies the cell whose evaluation failed.
	CellID uint64

	// Err is the recovered failure.
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("cell %d: evaluation failed: %v", e.CellID, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
