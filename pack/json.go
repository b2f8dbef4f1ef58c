package pack

import (
	"encoding/json"
	"fmt"
)

// JSON is a second Codec, proving the pack.Codec contract is genuinely
// pluggable: framing (Header) and dispatch never touch PlainText directly,
// only the Codec/Serializer/Deserializer interfaces. Grounded on the
// Encode/Decode-pair Codec shape in _examples/luxfi-rpc/codec.go, adapted to
// the chained Serializer/Deserializer this module expects — each packed
// value becomes one element of a JSON array, read back in the same order.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) NewSerializer() Serializer {
	return &jsonSerializer{}
}

func (jsonCodec) NewDeserializer(buf []byte) Deserializer {
	return &jsonDeserializer{buf: buf}
}

type jsonSerializer struct {
	elems []json.RawMessage
}

func (s *jsonSerializer) Pack(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s.elems = append(s.elems, raw)
	return nil
}

func (s *jsonSerializer) Buffer() []byte {
	buf, err := json.Marshal(s.elems)
	if err != nil {
		// elems already validated individually in Pack; Marshal of a
		// []json.RawMessage of already-valid fragments cannot fail.
		panic(err)
	}
	return buf
}

type jsonDeserializer struct {
	buf   []byte
	elems []json.RawMessage
	pos   int
	ready bool
}

func (d *jsonDeserializer) Unpack(v any) error {
	if !d.ready {
		if len(d.buf) == 0 {
			return ErrTruncated
		}
		if err := json.Unmarshal(d.buf, &d.elems); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		d.ready = true
	}
	if d.pos >= len(d.elems) {
		return ErrTruncated
	}
	if err := json.Unmarshal(d.elems[d.pos], v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	d.pos++
	return nil
}
