package sync

import (
	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/digest"
)

// Kind discriminates protocol messages on the wire.
type Kind string

const (
	KindDigestRequest  Kind = "digest_request"
	KindDigestResponse Kind = "digest_response"
	KindOpsRequest     Kind = "ops_request"
	KindOpsResponse    Kind = "ops_response"
)

// Message is a resync protocol message.
type Message interface {
	Kind() Kind
}

// DigestRequest asks a peer for the combined digest of the operations
// with timestamp-order indexes in [Start, End) of document Doc.
type DigestRequest struct {
	Doc   uuid.UUID
	Start int
	End   int
}

// Kind implements Message.
func (DigestRequest) Kind() Kind { return KindDigestRequest }

// DigestResponse answers a DigestRequest. OK is false when the
// requested range snapped to an empty span, in which case Digest is
// meaningless.
type DigestResponse struct {
	Doc    uuid.UUID
	Start  int
	End    int
	Digest digest.Digest
	OK     bool
}

// Kind implements Message.
func (DigestResponse) Kind() Kind { return KindDigestResponse }

// OpsRequest asks a peer for the raw operations with timestamp-order
// indexes in [Start, End).
type OpsRequest struct {
	Doc   uuid.UUID
	Start int
	End   int
}

// Kind implements Message.
func (OpsRequest) Kind() Kind { return KindOpsRequest }

// OpsResponse carries the operations answering an OpsRequest, in
// timestamp order.
type OpsResponse struct {
	Doc uuid.UUID
	Ops []*buffer.EditOperation
}

// Kind implements Message.
func (OpsResponse) Kind() Kind { return KindOpsResponse }
