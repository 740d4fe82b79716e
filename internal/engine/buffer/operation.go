package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/digest"
)

// OpKind discriminates edit operations. Replace edits are decomposed
// into a delete followed by an insert so that concurrent-edit
// transformation only ever deals with the two primitives.
type OpKind uint8

const (
	// OpInsert inserts Text at Offset.
	OpInsert OpKind = iota

	// OpDelete removes Len bytes starting at Offset.
	OpDelete
)

// String returns the kind's wire name.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// EditOperation is a single immutable edit unit. Offset and Len are
// expressed in the coordinates of the creating replica's document at
// Version; receivers transform them across any concurrently applied
// edits before applying.
type EditOperation struct {
	Timestamp clock.Lamport
	Version   clock.Version
	Kind      OpKind
	Offset    int
	Len       int
	Text      string
}

// ID returns the operation's Lamport timestamp.
func (op *EditOperation) ID() clock.Lamport {
	return op.Timestamp
}

// String formats the operation for logs.
func (op *EditOperation) String() string {
	if op.Kind == OpInsert {
		return fmt.Sprintf("insert@%s(%d, %q)", op.Timestamp, op.Offset, op.Text)
	}
	return fmt.Sprintf("delete@%s(%d, %d)", op.Timestamp, op.Offset, op.Len)
}

// OperationHash hashes an operation's identity into the digest group.
// Replicas fold these in timestamp order, so equal history ranges yield
// equal digests and reordered histories do not.
func OperationHash(ts clock.Lamport) digest.HashMatrix {
	var buf [10]byte
	binary.BigEndian.PutUint64(buf[:8], ts.Counter)
	binary.BigEndian.PutUint16(buf[8:], uint16(ts.Replica))
	return digest.HashBytes(buf[:])
}
