package session

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/digest"
	"github.com/dshills/textloom/internal/engine/selection"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	if s.ID() == uuid.Nil {
		t.Error("expected a random document ID")
	}
	if s.Text() != "" {
		t.Errorf("Text() = %q, want empty", s.Text())
	}
	if s.granularity != DefaultReconcileGranularity {
		t.Errorf("granularity = %d, want %d", s.granularity, DefaultReconcileGranularity)
	}
}

func TestNewWithOptions(t *testing.T) {
	id := uuid.New()
	s := New(
		WithReplica(7),
		WithContent("hello"),
		WithDocumentID(id),
		WithReconcileGranularity(4),
		WithMaxDeferredOps(10),
	)
	if s.Replica() != 7 {
		t.Errorf("Replica() = %d, want 7", s.Replica())
	}
	if s.Text() != "hello" {
		t.Errorf("Text() = %q, want %q", s.Text(), "hello")
	}
	if s.ID() != id {
		t.Errorf("ID() = %v, want %v", s.ID(), id)
	}
	if s.granularity != 4 || s.maxDeferred != 10 {
		t.Errorf("granularity=%d maxDeferred=%d, want 4 and 10", s.granularity, s.maxDeferred)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
replica = 3
document_id = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
log_level = "debug"
reconcile_granularity = 8
max_deferred_ops = 64
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	s := New(opts...)
	if s.Replica() != 3 {
		t.Errorf("Replica() = %d, want 3", s.Replica())
	}
	if got := s.ID().String(); got != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("ID() = %s", got)
	}
	if s.granularity != 8 || s.maxDeferred != 64 {
		t.Errorf("granularity=%d maxDeferred=%d, want 8 and 64", s.granularity, s.maxDeferred)
	}
}

func TestParseConfigErrors(t *testing.T) {
	if _, err := ParseConfig([]byte("replica = [")); err == nil {
		t.Error("expected error for malformed TOML")
	}

	cfg := Config{DocumentID: "not-a-uuid"}
	if _, err := cfg.Options(); err == nil {
		t.Error("expected error for malformed document_id")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/settings.toml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("cfg = %+v, want zero", cfg)
	}
}

func TestEditAndDrain(t *testing.T) {
	s := New(WithReplica(1), WithContent("hello"))

	s.Edit(5, 5, " world")
	s.Edit(0, 5, "goodbye")

	ops := s.Drain()
	if len(ops) != 3 { // insert + (delete, insert)
		t.Fatalf("Drain returned %d ops, want 3", len(ops))
	}
	if got := s.Drain(); len(got) != 0 {
		t.Errorf("second Drain returned %d ops, want 0", len(got))
	}
	if got := s.Text(); got != "goodbye world" {
		t.Errorf("Text() = %q, want %q", got, "goodbye world")
	}
}

func TestApplyConvergesSessions(t *testing.T) {
	a := New(WithReplica(1), WithContent("shared"))
	b := New(WithReplica(2), WithContent("shared"))

	a.Edit(0, 0, "A")
	b.Edit(6, 6, "B")

	aOps, bOps := a.Drain(), b.Drain()
	a.Apply(bOps)
	b.Apply(aOps)

	if a.Text() != b.Text() {
		t.Errorf("sessions diverged: %q vs %q", a.Text(), b.Text())
	}
	if a.DeferredLen() != 0 || b.DeferredLen() != 0 {
		t.Errorf("deferred ops left: %d and %d", a.DeferredLen(), b.DeferredLen())
	}
}

// sessionPeer adapts a local Session to the Peer interface for
// loopback reconciliation tests.
type sessionPeer struct {
	s *Session
}

func (p sessionPeer) OperationCount(context.Context) (int, error) {
	return p.s.OperationCount(), nil
}

func (p sessionPeer) Digest(_ context.Context, start, end int) (digest.Digest, bool, error) {
	d, ok := p.s.Digest(start, end)
	return d, ok, nil
}

func (p sessionPeer) Operations(_ context.Context, start, end int) ([]*buffer.EditOperation, error) {
	return p.s.Operations(start, end), nil
}

func TestReconcileCatchesUpFreshReplica(t *testing.T) {
	src := New(WithReplica(1))
	for _, word := range strings.Fields("the quick brown fox jumps over the lazy dog") {
		src.Edit(src.Len(), src.Len(), word+" ")
	}

	dst := New(WithReplica(2), WithReconcileGranularity(2))
	fetched, err := dst.Reconcile(context.Background(), sessionPeer{src})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fetched != src.OperationCount() {
		t.Errorf("fetched %d ops, want %d", fetched, src.OperationCount())
	}
	if dst.Text() != src.Text() {
		t.Errorf("texts differ after reconcile: %q vs %q", dst.Text(), src.Text())
	}
}

func TestReconcileAfterDivergence(t *testing.T) {
	a := New(WithReplica(1), WithContent("base "), WithReconcileGranularity(2))
	b := New(WithReplica(2), WithContent("base "), WithReconcileGranularity(2))

	// A shared prefix both sides already have.
	shared := a.Edit(5, 5, "shared ")
	b.Apply(shared)

	// Then each side edits alone.
	a.Edit(a.Len(), a.Len(), "alpha ")
	b.Edit(b.Len(), b.Len(), "beta ")

	if _, err := a.Reconcile(context.Background(), sessionPeer{b}); err != nil {
		t.Fatalf("a.Reconcile: %v", err)
	}
	if _, err := b.Reconcile(context.Background(), sessionPeer{a}); err != nil {
		t.Fatalf("b.Reconcile: %v", err)
	}

	if a.Text() != b.Text() {
		t.Fatalf("sessions diverged after reconcile: %q vs %q", a.Text(), b.Text())
	}
	n := a.OperationCount()
	if m := b.OperationCount(); m != n {
		t.Fatalf("op counts differ: %d vs %d", n, m)
	}
	da, _ := a.Digest(0, n)
	db, _ := b.Digest(0, n)
	if da != db {
		t.Error("digests differ after reconcile")
	}
}

func TestReconcileNoopWhenInSync(t *testing.T) {
	a := New(WithReplica(1))
	b := New(WithReplica(2))
	a.Edit(0, 0, "same ops")
	b.Apply(a.Drain())

	fetched, err := b.Reconcile(context.Background(), sessionPeer{a})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fetched != 0 {
		t.Errorf("fetched %d ops from an in-sync peer, want 0", fetched)
	}
}

func TestSelectionSetThroughSession(t *testing.T) {
	s := New(WithReplica(1), WithContent("hello world"))
	snap := s.Snapshot()

	sel := selection.Selection[buffer.Anchor]{
		Start: snap.AnchorAfter(0),
		End:   snap.AnchorBefore(5),
	}
	id := s.AddSelectionSet([]selection.Selection[buffer.Anchor]{sel})

	if err := s.SetSelectionSetActive(id, true); err != nil {
		t.Fatalf("SetSelectionSetActive: %v", err)
	}
	got, err := s.SelectionSet(id)
	if err != nil || len(got) != 1 {
		t.Fatalf("SelectionSet: %v, %d selections", err, len(got))
	}

	// The selection tracks edits made after it was registered.
	s.Edit(0, 0, ">> ")
	offs, err := s.SelectionSetOffsets(id)
	if err != nil || len(offs) != 1 {
		t.Fatalf("SelectionSetOffsets: %v, %d selections", err, len(offs))
	}
	if offs[0].Start != 3 || offs[0].End != 8 {
		t.Errorf("resolved range = (%d, %d), want (3, 8)", offs[0].Start, offs[0].End)
	}

	if err := s.RemoveSelectionSet(id); err != nil {
		t.Fatalf("RemoveSelectionSet: %v", err)
	}
	if err := s.SetSelectionSetActive(id, false); err == nil {
		t.Error("expected error for removed set")
	}
}

func TestSessionIsIndependentPerDocument(t *testing.T) {
	a := New(WithReplica(1), WithContent("doc a"))
	b := New(WithReplica(1), WithContent("doc b"))

	a.Edit(0, 0, "x")
	if b.Text() != "doc b" {
		t.Error("editing one session affected another")
	}
	if a.ID() == b.ID() {
		t.Error("sessions should get distinct document IDs")
	}
}
