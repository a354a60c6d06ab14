// Package orchestrator defines the boundary contracts toward the
// orchestration layer: where base topologies come from, where generated
// service requests go, and where raw descriptors are fetched. The conversion
// core never speaks a transport; an outer shim implements these interfaces
// against its own I/O and hands the core plain documents.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nfvio/topoconv/pkg/virtualizer"
)

// View selects the shape of a provided topology.
type View string

const (
	// ViewFull is the complete multi-node topology of a scope.
	ViewFull View = "full"

	// ViewSingleNode is the collapsed single BiSBiS view.
	ViewSingleNode View = "single-node"
)

// TopologyProvider returns the current base document for a scope. The
// returned document is owned by the caller; providers must not retain or
// mutate it after returning.
type TopologyProvider interface {
	Topology(ctx context.Context, scope string, view View) (*virtualizer.Virtualizer, error)
}

// Status is the outcome a sink reports for a submitted request.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Request is one generated service request on its way to a sink. Document
// is either a full tree or a diff fragment against the scope's base.
type Request struct {
	ID        uuid.UUID
	Scope     string
	Document  *virtualizer.Virtualizer
	Diff      bool
	CreatedAt time.Time
}

// NewRequest wraps a generated document in a submission envelope with a
// fresh correlation id.
func NewRequest(scope string, doc *virtualizer.Virtualizer, diff bool) Request {
	return Request{
		ID:        uuid.New(),
		Scope:     scope,
		Document:  doc,
		Diff:      diff,
		CreatedAt: time.Now().UTC(),
	}
}

// RequestSink accepts generated service requests. Submit returns the
// sink's verdict; transport failures come back as errors, rejections as
// StatusRejected with a nil error.
type RequestSink interface {
	Submit(ctx context.Context, req Request) (Status, error)
}

// DescriptorSource supplies raw service/NF descriptor documents by id. The
// translation of descriptors into graph elements happens upstream of this
// core; the source only moves bytes.
type DescriptorSource interface {
	Descriptor(ctx context.Context, id string) ([]byte, error)
}
