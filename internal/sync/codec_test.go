package sync

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/digest"
)

func TestDigestRequestRoundTrip(t *testing.T) {
	in := DigestRequest{Doc: uuid.New(), Start: 3, End: 17}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed message: %+v -> %+v", in, out)
	}
}

func TestDigestResponseRoundTrip(t *testing.T) {
	// Hash elements routinely exceed 2^53, so they must survive JSON.
	h := digest.HashBytes([]byte("some operation id"))
	in := DigestResponse{
		Doc:    uuid.New(),
		Start:  0,
		End:    4,
		Digest: digest.New(4, h),
		OK:     true,
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := out.(DigestResponse)
	if !ok {
		t.Fatalf("decoded %T, want DigestResponse", out)
	}
	if got.Digest != in.Digest || got.OK != in.OK || got.Start != in.Start || got.End != in.End {
		t.Errorf("round trip changed message: %+v -> %+v", in, got)
	}
}

func TestDigestResponseEmptyRange(t *testing.T) {
	in := DigestResponse{Doc: uuid.New(), Start: 5, End: 5, OK: false}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := out.(DigestResponse)
	if got.OK {
		t.Error("OK = true, want false")
	}
	if got.Digest != (digest.Digest{}) {
		t.Errorf("empty response carried a digest: %+v", got.Digest)
	}
}

func TestOpsResponseCarriesRealOperations(t *testing.T) {
	// Operations produced by one replica survive the wire and converge
	// a second replica.
	src := buffer.New(1, "hello")
	ops := src.Edit(5, 5, ", world")
	ops = append(ops, src.Edit(0, 5, "goodbye")...)

	doc := uuid.New()
	data, err := Encode(OpsResponse{Doc: doc, Ops: ops})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := out.(OpsResponse)
	if !ok {
		t.Fatalf("decoded %T, want OpsResponse", out)
	}
	if got.Doc != doc {
		t.Errorf("Doc = %v, want %v", got.Doc, doc)
	}
	if len(got.Ops) != len(ops) {
		t.Fatalf("got %d ops, want %d", len(got.Ops), len(ops))
	}
	for i, op := range got.Ops {
		want := ops[i]
		if op.Timestamp != want.Timestamp || op.Kind != want.Kind ||
			op.Offset != want.Offset || op.Len != want.Len || op.Text != want.Text {
			t.Errorf("op %d: %+v, want %+v", i, op, want)
		}
		if !op.Version.Equal(want.Version) {
			t.Errorf("op %d: version %v, want %v", i, op.Version, want.Version)
		}
	}

	dst := buffer.New(2, "hello")
	dst.Integrate(got.Ops)
	if dst.Text() != src.Text() {
		t.Errorf("decoded ops did not converge: %q vs %q", dst.Text(), src.Text())
	}
}

func TestOpsRequestRoundTrip(t *testing.T) {
	in := OpsRequest{Doc: uuid.New(), Start: 8, End: 32}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed message: %+v -> %+v", in, out)
	}
}

func TestLargeCounterSurvivesWire(t *testing.T) {
	op := &buffer.EditOperation{
		Timestamp: clock.Lamport{Counter: 1<<62 + 12345, Replica: 9},
		Version:   clock.Version{3: 1 << 60},
		Kind:      buffer.OpInsert,
		Offset:    0,
		Len:       1,
		Text:      "x",
	}
	data, err := Encode(OpsResponse{Doc: uuid.New(), Ops: []*buffer.EditOperation{op}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := out.(OpsResponse).Ops[0]
	if got.Timestamp != op.Timestamp {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, op.Timestamp)
	}
	if got.Version[3] != 1<<60 {
		t.Errorf("Version[3] = %d, want %d", got.Version[3], uint64(1)<<60)
	}
}

func TestDecodeErrors(t *testing.T) {
	doc := uuid.New().String()
	tests := []struct {
		name string
		data string
		want error
	}{
		{"invalid json", `{"kind":`, ErrMalformedMessage},
		{"missing kind", `{"doc":"` + doc + `"}`, ErrMalformedMessage},
		{"bad doc id", `{"kind":"ops_request","doc":"nope"}`, ErrMalformedMessage},
		{"unknown kind", `{"kind":"handshake","doc":"` + doc + `"}`, ErrUnknownKind},
		{"bad op kind", `{"kind":"ops_response","doc":"` + doc + `","ops":[{"counter":"1","replica":1,"kind":"rotate"}]}`, ErrMalformedMessage},
		{"bad op counter", `{"kind":"ops_response","doc":"` + doc + `","ops":[{"counter":"x","replica":1,"kind":"insert"}]}`, ErrMalformedMessage},
		{"replica too large", `{"kind":"ops_response","doc":"` + doc + `","ops":[{"counter":"1","replica":70000,"kind":"insert"}]}`, ErrMalformedMessage},
		{"zero digest count", `{"kind":"digest_response","doc":"` + doc + `","ok":true,"digest":{"count":0,"hash":["1","2","3","4"]}}`, ErrMalformedMessage},
		{"short digest hash", `{"kind":"digest_response","doc":"` + doc + `","ok":true,"digest":{"count":1,"hash":["1","2"]}}`, ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeDeleteOmitsText(t *testing.T) {
	op := &buffer.EditOperation{
		Timestamp: clock.Lamport{Counter: 1, Replica: 1},
		Version:   clock.NewVersion(),
		Kind:      buffer.OpDelete,
		Offset:    2,
		Len:       3,
	}
	data, err := encodeOp(op)
	if err != nil {
		t.Fatalf("encodeOp: %v", err)
	}
	if strings.Contains(string(data), `"text"`) {
		t.Errorf("delete op encoded text field: %s", data)
	}
}
