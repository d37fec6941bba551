package notebook

import "errors"

// Standard errors returned by the document model.
var (
	// ErrCellNotFound indicates the cell ID does not exist in the document.
	ErrCellNotFound = errors.New("cell not found")

	// ErrIndexOutOfRange indicates an insert index outside the document.
	ErrIndexOutOfRange = errors.New("cell index out of range")

	// ErrCannotMove indicates a move would push the cell past a document edge.
	ErrCannotMove = errors.New("cell cannot move in that direction")
)
