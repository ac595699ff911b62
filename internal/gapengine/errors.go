package gapengine

import "errors"

// Precondition violations: structurally invalid input the caller must fix.
// Degenerate-but-well-typed input never produces an error; it degrades to
// a partial result with an inspectable reason instead.
var (
	ErrNilDocument        = errors.New("gapengine: own document is nil")
	ErrNilBusinessContext = errors.New("gapengine: business context is nil")
)
