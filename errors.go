package nanorpc

import "fmt"

// RegistrationErrorKind enumerates why Server.Handle/HandleID refused a
// registration.
type RegistrationErrorKind int

const (
	// Duplicate means the procedure ID is already registered.
	Duplicate RegistrationErrorKind = iota
)

// RegistrationError is returned by Server.Handle and Server.HandleID.
type RegistrationError struct {
	Kind RegistrationErrorKind
	ID   ID
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("nanorpc: registration failed: procedure id %d already exists", e.ID)
}

// DispatchErrorKind enumerates the ways Server.Dispatch can fail before a
// handler ever runs.
type DispatchErrorKind int

const (
	// NoHandlers means the registry is empty.
	NoHandlers DispatchErrorKind = iota
	// UnsupportedProtocol means the request's header carries a protocol
	// version this server does not speak.
	UnsupportedProtocol
	// UnknownProcedure means no handler is registered for the header's
	// procedure id.
	UnknownProcedure
)

// DispatchError is returned by Server.Dispatch.
type DispatchError struct {
	Kind            DispatchErrorKind
	ProtocolVersion uint32
	ProcedureID     ID
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case NoHandlers:
		return "nanorpc: dispatch failed: no handlers registered"
	case UnsupportedProtocol:
		return fmt.Sprintf("nanorpc: dispatch failed: unsupported protocol version %d", e.ProtocolVersion)
	case UnknownProcedure:
		return fmt.Sprintf("nanorpc: dispatch failed: unknown procedure %d", e.ProcedureID)
	default:
		return "nanorpc: dispatch failed"
	}
}

// HandlerError wraps an error returned by user handler code. It is opaque
// to the transport by design (spec §4.3: "Any exception thrown by the
// handler is surfaced as a dispatch-level failure ... not embedded in the
// RPC frame").
type HandlerError struct {
	ProcedureID ID
	Err         error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("nanorpc: handler for procedure %d failed: %v", e.ProcedureID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// CodecError wraps a failure from the pack package: malformed, truncated,
// or out-of-range input.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("nanorpc: codec error: %v", e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// ClientErrorKind enumerates client-side call failures that are not
// transport errors.
type ClientErrorKind int

const (
	// BadResponseHeader means the response's echoed header did not match
	// the request header byte-for-byte — a protocol-level mismatch, never
	// retried (spec §4.4, §7).
	BadResponseHeader ClientErrorKind = iota
)

// ClientError is returned by Client.Call.
type ClientError struct {
	Kind ClientErrorKind
	Want Header
	Got  Header
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("nanorpc: bad response header: want %+v, got %+v", e.Want, e.Got)
}
