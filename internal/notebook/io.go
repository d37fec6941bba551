package notebook

import "encoding/json"

// The document core treats on-disk serialization, output rendering, and
// kernel execution as external collaborators. These interfaces define
// the seams; the core never depends on their internals.

// Serializer converts between the on-disk notebook format and the cell
// sequence.
type Serializer interface {
	Parse(data []byte) ([]*Cell, error)
	Serialize(cells []*Cell) ([]byte, error)
}

// OutputRenderer displays execution outputs for a cell. The payload is
// opaque to the core.
type OutputRenderer interface {
	RenderOutputs(id CellID, outputs json.RawMessage)
}

// Kernel executes a cell's source and delivers outputs asynchronously.
// The core stores the delivered outputs opaquely via Document.SetOutputs.
type Kernel interface {
	Execute(id CellID, source []string, deliver func(outputs json.RawMessage))
}
