package sync

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/digest"
)

// Errors returned by the codec.
var (
	// ErrMalformedMessage indicates wire data that does not decode to a
	// protocol message.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownKind indicates a message kind this codec does not know.
	ErrUnknownKind = errors.New("unknown message kind")
)

// uint64 values are carried as decimal strings: counters, version
// entries, and hash elements exceed JSON's exact integer range.

// Encode serializes a message to its JSON wire form.
func Encode(m Message) ([]byte, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, value)
		}
	}
	setRaw := func(path string, raw []byte) {
		if err == nil {
			data, err = sjson.SetRawBytes(data, path, raw)
		}
	}

	set("kind", string(m.Kind()))

	switch msg := m.(type) {
	case DigestRequest:
		set("doc", msg.Doc.String())
		set("start", msg.Start)
		set("end", msg.End)
	case DigestResponse:
		set("doc", msg.Doc.String())
		set("start", msg.Start)
		set("end", msg.End)
		set("ok", msg.OK)
		if msg.OK {
			set("digest.count", msg.Digest.Count)
			for i, e := range msg.Digest.Hash.Elements() {
				set(fmt.Sprintf("digest.hash.%d", i), strconv.FormatUint(e, 10))
			}
		}
	case OpsRequest:
		set("doc", msg.Doc.String())
		set("start", msg.Start)
		set("end", msg.End)
	case OpsResponse:
		set("doc", msg.Doc.String())
		setRaw("ops", []byte(`[]`))
		for _, op := range msg.Ops {
			opJSON, opErr := encodeOp(op)
			if opErr != nil {
				return nil, opErr
			}
			setRaw("ops.-1", opJSON)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, m)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Kind(), err)
	}
	return data, nil
}

func encodeOp(op *buffer.EditOperation) ([]byte, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, value)
		}
	}

	set("counter", strconv.FormatUint(op.Timestamp.Counter, 10))
	set("replica", uint64(op.Timestamp.Replica))
	setRaw := func(path string, raw []byte) {
		if err == nil {
			data, err = sjson.SetRawBytes(data, path, raw)
		}
	}
	setRaw("version", []byte(`[]`))
	for replica, counter := range op.Version {
		entry := []byte(`{}`)
		entry, eErr := sjson.SetBytes(entry, "replica", uint64(replica))
		if eErr == nil {
			entry, eErr = sjson.SetBytes(entry, "counter", strconv.FormatUint(counter, 10))
		}
		if eErr != nil {
			return nil, fmt.Errorf("encoding op %s: %w", op.Timestamp, eErr)
		}
		setRaw("version.-1", entry)
	}
	set("kind", op.Kind.String())
	set("offset", op.Offset)
	set("len", op.Len)
	if op.Kind == buffer.OpInsert {
		set("text", op.Text)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding op %s: %w", op.Timestamp, err)
	}
	return data, nil
}

// Decode parses a JSON wire message.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedMessage)
	}
	root := gjson.ParseBytes(data)

	kind := root.Get("kind")
	if !kind.Exists() {
		return nil, fmt.Errorf("%w: missing kind", ErrMalformedMessage)
	}
	doc, err := uuid.Parse(root.Get("doc").String())
	if err != nil {
		return nil, fmt.Errorf("%w: bad doc id: %v", ErrMalformedMessage, err)
	}

	switch Kind(kind.String()) {
	case KindDigestRequest:
		return DigestRequest{
			Doc:   doc,
			Start: int(root.Get("start").Int()),
			End:   int(root.Get("end").Int()),
		}, nil

	case KindDigestResponse:
		msg := DigestResponse{
			Doc:   doc,
			Start: int(root.Get("start").Int()),
			End:   int(root.Get("end").Int()),
			OK:    root.Get("ok").Bool(),
		}
		if msg.OK {
			d, err := decodeDigest(root.Get("digest"))
			if err != nil {
				return nil, err
			}
			msg.Digest = d
		}
		return msg, nil

	case KindOpsRequest:
		return OpsRequest{
			Doc:   doc,
			Start: int(root.Get("start").Int()),
			End:   int(root.Get("end").Int()),
		}, nil

	case KindOpsResponse:
		msg := OpsResponse{Doc: doc}
		var opErr error
		root.Get("ops").ForEach(func(_, value gjson.Result) bool {
			op, err := decodeOp(value)
			if err != nil {
				opErr = err
				return false
			}
			msg.Ops = append(msg.Ops, op)
			return true
		})
		if opErr != nil {
			return nil, opErr
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind.String())
	}
}

func decodeDigest(r gjson.Result) (digest.Digest, error) {
	count := int(r.Get("count").Int())
	if count <= 0 {
		return digest.Digest{}, fmt.Errorf("%w: digest count %d", ErrMalformedMessage, count)
	}
	hash := r.Get("hash")
	if !hash.IsArray() || len(hash.Array()) != 4 {
		return digest.Digest{}, fmt.Errorf("%w: digest hash must have 4 elements", ErrMalformedMessage)
	}
	var elems [4]uint64
	for i, e := range hash.Array() {
		v, err := strconv.ParseUint(e.String(), 10, 64)
		if err != nil {
			return digest.Digest{}, fmt.Errorf("%w: bad hash element: %v", ErrMalformedMessage, err)
		}
		elems[i] = v
	}
	return digest.New(count, digest.MatrixFromElements(elems)), nil
}

func decodeOp(r gjson.Result) (*buffer.EditOperation, error) {
	counter, err := strconv.ParseUint(r.Get("counter").String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad op counter: %v", ErrMalformedMessage, err)
	}
	replica := r.Get("replica")
	if !replica.Exists() || replica.Uint() > 0xFFFF {
		return nil, fmt.Errorf("%w: bad op replica", ErrMalformedMessage)
	}

	var kind buffer.OpKind
	switch r.Get("kind").String() {
	case "insert":
		kind = buffer.OpInsert
	case "delete":
		kind = buffer.OpDelete
	default:
		return nil, fmt.Errorf("%w: bad op kind %q", ErrMalformedMessage, r.Get("kind").String())
	}

	version := clock.NewVersion()
	var verErr error
	r.Get("version").ForEach(func(_, entry gjson.Result) bool {
		rid := entry.Get("replica")
		if !rid.Exists() || rid.Uint() > 0xFFFF {
			verErr = fmt.Errorf("%w: bad version replica", ErrMalformedMessage)
			return false
		}
		n, err := strconv.ParseUint(entry.Get("counter").String(), 10, 64)
		if err != nil {
			verErr = fmt.Errorf("%w: bad version counter: %v", ErrMalformedMessage, err)
			return false
		}
		version[clock.ReplicaID(rid.Uint())] = n
		return true
	})
	if verErr != nil {
		return nil, verErr
	}

	return &buffer.EditOperation{
		Timestamp: clock.Lamport{Counter: counter, Replica: clock.ReplicaID(replica.Uint())},
		Version:   version,
		Kind:      kind,
		Offset:    int(r.Get("offset").Int()),
		Len:       int(r.Get("len").Int()),
		Text:      r.Get("text").String(),
	}, nil
}
