// Package pack implements NanoRPC's pluggable value<->buffer codec.
//
// A Codec turns a chain of packed values into an opaque byte buffer and
// back. The reference codec, PlainText, is a whitespace-delimited ASCII
// format; JSON is a second, binary-agnostic codec kept here to prove the
// contract is really pluggable — framing and dispatch code never look past
// the Codec/Serializer/Deserializer interfaces.
package pack

import "errors"

// Codec constructs a fresh Serializer for building a buffer and a fresh
// Deserializer for reading one back. Implementations must satisfy
// Deserializer(Serializer(v)) == v for every value domain they support.
type Codec interface {
	NewSerializer() Serializer
	NewDeserializer(buf []byte) Deserializer
}

// Serializer accumulates packed values. Pack is chainable: each call
// appends its value's encoding to the running buffer.
type Serializer interface {
	Pack(v any) error
	Buffer() []byte
}

// Deserializer reads packed values off a single stateful cursor, in the
// order they were packed. Unpack writes the decoded value into v, which
// must be a non-nil pointer.
type Deserializer interface {
	Unpack(v any) error
}

// Errors returned by codec implementations. Truncated and Malformed mirror
// spec's CodecError::Truncated/Malformed/OutOfRange taxonomy.
var (
	ErrTruncated     = errors.New("pack: truncated stream")
	ErrMalformed     = errors.New("pack: malformed encoding")
	ErrOutOfRange    = errors.New("pack: numeric value out of range")
	ErrNotPointer    = errors.New("pack: unpack target must be a non-nil pointer")
	ErrTooManyFields = errors.New("pack: record exceeds maximum field count")
)

// MaxRecordFields bounds how many fields reflectTuple will decompose a
// record into. Matches the reference implementation's limit.
const MaxRecordFields = 64
