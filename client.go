package nanorpc

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"nanorpc/pack"
)

// Sender submits a request buffer to a transport and returns the response
// buffer it receives back, or a transport-layer error. transport/http.Client
// implements this via its pooled-session executor.
type Sender func(ctx context.Context, request []byte) ([]byte, error)

// Client assembles requests, hands them to a Sender, and validates
// responses. It knows nothing about HTTP, TCP, or any other transport —
// that separation is the whole point of spec's "transport-agnostic
// request/response engine."
type Client struct {
	codec pack.Codec
	send  Sender
}

// NewClient builds a Client over the given codec and transport Sender.
func NewClient(codec pack.Codec, send Sender) *Client {
	return &Client{codec: codec, send: send}
}

// Call invokes a remote procedure identified by name (hashed via HashName)
// or by a raw ID, passing args as its argument tuple. It returns a Result
// that lazily decodes the response once As is called.
func (c *Client) Call(ctx context.Context, procedure any, args ...any) (*Result, error) {
	id, err := procedureID(procedure)
	if err != nil {
		return nil, err
	}

	header := Header{ProtocolVersion: Protocol, ProcedureID: id}

	ser := c.codec.NewSerializer()
	if err := ser.Pack(header); err != nil {
		return nil, &CodecError{Err: err}
	}
	for _, a := range args {
		if err := ser.Pack(a); err != nil {
			return nil, &CodecError{Err: err}
		}
	}

	respBuf, err := c.send(ctx, ser.Buffer())
	if err != nil {
		return nil, err
	}

	deser := c.codec.NewDeserializer(respBuf)
	var respHeader Header
	if err := deser.Unpack(&respHeader); err != nil {
		return nil, &CodecError{Err: err}
	}
	if respHeader != header {
		return nil, &ClientError{Kind: BadResponseHeader, Want: header, Got: respHeader}
	}

	return &Result{deser: deser}, nil
}

func procedureID(procedure any) (ID, error) {
	switch p := procedure.(type) {
	case ID:
		return p, nil
	case string:
		return HashName(p), nil
	default:
		return 0, fmt.Errorf("nanorpc: procedure must be a string name or an ID, got %T", procedure)
	}
}

// Result is a lazily-decoded response value. It decodes once, the first
// time As is called, and memoizes the result; a later As call with a
// different destination type is rejected rather than silently
// reinterpreting already-consumed bytes (spec §4.4).
type Result struct {
	deser pack.Deserializer

	mu          sync.Mutex
	decodedType reflect.Type
	decodedVal  reflect.Value
}

// As decodes the result into dst, which must be a non-nil pointer.
func (r *Result) As(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("nanorpc: Result.As requires a non-nil pointer, got %T", dst)
	}
	elem := rv.Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.decodedType != nil {
		if elem.Type() != r.decodedType {
			return fmt.Errorf("nanorpc: result already decoded as %s, cannot decode as %s",
				r.decodedType, elem.Type())
		}
		elem.Set(r.decodedVal)
		return nil
	}

	if err := r.deser.Unpack(dst); err != nil {
		return &CodecError{Err: err}
	}
	r.decodedType = elem.Type()
	r.decodedVal = reflect.New(elem.Type()).Elem()
	r.decodedVal.Set(elem)
	return nil
}

// Void consumes a header-only response from a handler that returns no
// value (spec §8: "handler returning unit yields header-only response").
// It never touches the deserializer since there is nothing left to read.
func (r *Result) Void() error {
	return nil
}
