package viewsync

import "errors"

// Standard errors returned by the synchronizer.
var (
	// ErrOverlayOpen indicates an overlay already exists for the document.
	ErrOverlayOpen = errors.New("overlay already open")

	// ErrOverlayClosed indicates no overlay is open.
	ErrOverlayClosed = errors.New("no overlay open")

	// ErrStaleCell indicates the cell's anchor is no longer valid; the
	// operation is no longer applicable and must not be retried blindly.
	ErrStaleCell = errors.New("cell reference is stale")

	// ErrLineRange indicates a line range outside the view.
	ErrLineRange = errors.New("line range out of bounds")
)
