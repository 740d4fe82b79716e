package session

import (
	"context"
	"fmt"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/digest"
)

// Peer serves another replica's operation history during
// reconciliation. Indexes are timestamp-order positions in the peer's
// applied log; the peer must not apply new operations while a
// reconciliation round is in flight.
type Peer interface {
	// OperationCount returns the number of operations the peer has
	// applied.
	OperationCount(ctx context.Context) (int, error)

	// Digest returns the combined digest of the peer's operations with
	// indexes in [start, end). ok is false when the range is empty.
	Digest(ctx context.Context, start, end int) (digest.Digest, bool, error)

	// Operations returns the peer's operations with indexes in
	// [start, end).
	Operations(ctx context.Context, start, end int) ([]*buffer.EditOperation, error)
}

// Reconcile brings this replica up to date with a peer by comparing
// operation digests instead of shipping the whole history. Equal-index
// ranges whose digests match are skipped; mismatched ranges are split
// and probed until narrower than the configured granularity, then
// fetched as raw operations. Fetched operations are integrated in one
// batch at the end, so probe indexes stay stable for the whole round.
// Returns the number of operations fetched from the peer.
//
// Reconciliation is one-directional: the peer learns nothing. Run it
// again in the other direction, or exchange outboxes, for mutual
// convergence.
func (s *Session) Reconcile(ctx context.Context, peer Peer) (int, error) {
	peerCount, err := peer.OperationCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching peer op count: %w", err)
	}

	s.mu.RLock()
	localCount := s.buf.OperationCount()
	s.mu.RUnlock()

	shared := min(localCount, peerCount)
	fetched, err := s.probeRange(ctx, peer, 0, shared)
	if err != nil {
		return 0, err
	}

	// Operations past the shared prefix cannot match anything local.
	if peerCount > shared {
		tail, err := peer.Operations(ctx, shared, peerCount)
		if err != nil {
			return 0, fmt.Errorf("fetching peer ops [%d, %d): %w", shared, peerCount, err)
		}
		fetched = append(fetched, tail...)
	}

	if len(fetched) > 0 {
		s.Apply(fetched)
	}
	s.log.Info("reconciled against peer: %d ops fetched", len(fetched))
	return len(fetched), nil
}

// probeRange compares the local and peer digests for [start, end) and
// recurses into mismatched halves, collecting the operations to fetch.
func (s *Session) probeRange(ctx context.Context, peer Peer, start, end int) ([]*buffer.EditOperation, error) {
	if start >= end {
		return nil, nil
	}

	local, localOK := s.Digest(start, end)
	remote, remoteOK, err := peer.Digest(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching peer digest [%d, %d): %w", start, end, err)
	}
	if localOK == remoteOK && local == remote {
		return nil, nil
	}
	s.log.Debug("digest mismatch in [%d, %d)", start, end)

	if end-start <= s.granularity {
		ops, err := peer.Operations(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching peer ops [%d, %d): %w", start, end, err)
		}
		return ops, nil
	}

	mid := start + (end-start)/2
	left, err := s.probeRange(ctx, peer, start, mid)
	if err != nil {
		return nil, err
	}
	right, err := s.probeRange(ctx, peer, mid, end)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}
