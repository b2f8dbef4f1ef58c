package nanorpc

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/exp/slices"

	"nanorpc/pack"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type handlerFunc func(pack.Deserializer, pack.Serializer) error

// Server is the transport-agnostic handler registry and dispatcher. It
// knows how to turn a request buffer into a response buffer; it has no
// opinion on how either buffer travels, matching spec §2's "RPC Server
// Dispatcher" component.
type Server struct {
	codec pack.Codec

	mu       sync.RWMutex
	handlers map[ID]handlerFunc
	names    map[ID]string

	// recent is a bounded diagnostic view of which procedures were called
	// most recently, for the error handler / a debug endpoint to surface.
	// It is the one piece of state Dispatch still mutates after the server
	// starts serving; golang-lru is internally synchronized, so no
	// additional lock is needed around it (spec §5: "thread-safe by
	// construction").
	recent *lru.Cache
}

// NewServer builds a Server over the given codec with a default-sized
// recent-call diagnostic cache.
func NewServer(codec pack.Codec) *Server {
	recent, _ := lru.New(256)
	return &Server{
		codec:    codec,
		handlers: make(map[ID]handlerFunc),
		names:    make(map[ID]string),
		recent:   recent,
	}
}

// Handle registers fn under the ID derived from name. fn must be a
// function whose final return value is error, optionally preceded by one
// reply value: func(args...) error or func(args...) (Reply, error).
func (s *Server) Handle(name string, fn any) error {
	return s.register(HashName(name), name, fn)
}

// HandleID registers fn directly under id, bypassing name hashing.
func (s *Server) HandleID(id ID, fn any) error {
	return s.register(id, fmt.Sprintf("#%d", id), fn)
}

func (s *Server) register(id ID, name string, fn any) error {
	wrapper, err := wrapHandler(id, fn)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[id]; exists {
		return &RegistrationError{Kind: Duplicate, ID: id}
	}
	s.handlers[id] = wrapper
	s.names[id] = name
	return nil
}

// wrapHandler captures fn's argument and return types once, at
// registration time, so Dispatch never needs reflection beyond what the
// wrapper itself was built to do — the Go analogue of the reference
// implementation's function_meta-driven wrapper.
func wrapHandler(id ID, fn any) (handlerFunc, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("nanorpc: handler for %d must be a function, got %s", id, ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("nanorpc: handler for %d must not be variadic", id)
	}

	numOut := ft.NumOut()
	if numOut != 1 && numOut != 2 {
		return nil, fmt.Errorf("nanorpc: handler for %d must return (error) or (T, error), got %d results",
			id, numOut)
	}
	errOut := numOut - 1
	if ft.Out(errOut) != errorType {
		return nil, fmt.Errorf("nanorpc: handler for %d must return error as its last value", id)
	}
	hasReply := numOut == 2

	argTypes := make([]reflect.Type, ft.NumIn())
	for i := range argTypes {
		argTypes[i] = ft.In(i)
	}

	return func(req pack.Deserializer, resp pack.Serializer) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = &HandlerError{ProcedureID: id, Err: fmt.Errorf("panic: %v", v)}
			}
		}()
		args := make([]reflect.Value, len(argTypes))
		for i, t := range argTypes {
			p := reflect.New(t)
			if err := req.Unpack(p.Interface()); err != nil {
				return &CodecError{Err: err}
			}
			args[i] = p.Elem()
		}

		out := fv.Call(args)
		if errVal := out[errOut]; !errVal.IsNil() {
			return &HandlerError{ProcedureID: id, Err: errVal.Interface().(error)}
		}
		if hasReply {
			if err := resp.Pack(out[0].Interface()); err != nil {
				return &CodecError{Err: err}
			}
		}
		return nil
	}, nil
}

// Dispatch runs the full server-side algorithm from spec §4.3: decode the
// header, check the protocol version, look up the handler, invoke it, and
// pack the response with the request's own header echoed back.
func (s *Server) Dispatch(request []byte) ([]byte, error) {
	s.mu.RLock()
	empty := len(s.handlers) == 0
	s.mu.RUnlock()
	if empty {
		return nil, &DispatchError{Kind: NoHandlers}
	}

	deser := s.codec.NewDeserializer(request)
	var header Header
	if err := deser.Unpack(&header); err != nil {
		return nil, &CodecError{Err: err}
	}
	if header.ProtocolVersion != Protocol {
		return nil, &DispatchError{Kind: UnsupportedProtocol, ProtocolVersion: header.ProtocolVersion}
	}

	s.mu.RLock()
	wrapper, ok := s.handlers[header.ProcedureID]
	s.mu.RUnlock()
	if !ok {
		return nil, &DispatchError{Kind: UnknownProcedure, ProcedureID: header.ProcedureID}
	}

	if s.recent != nil {
		s.recent.Add(header.ProcedureID, time.Now())
	}

	ser := s.codec.NewSerializer()
	if err := ser.Pack(header); err != nil {
		return nil, &CodecError{Err: err}
	}
	if err := wrapper(deser, ser); err != nil {
		return nil, err
	}
	return ser.Buffer(), nil
}

// Recent returns the procedure IDs dispatched most recently, newest last,
// for diagnostics — never consulted by Dispatch itself.
func (s *Server) Recent() []ID {
	if s.recent == nil {
		return nil
	}
	keys := s.recent.Keys()
	ids := make([]ID, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.(ID))
	}
	return ids
}

// Registered returns every registered procedure ID in ascending order, for
// a debug endpoint or startup log line to enumerate.
func (s *Server) Registered() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ID, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Name returns the registered name for id, for logging. An id registered
// via HandleID has the name "#<id>".
func (s *Server) Name(id ID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[id]
	return name, ok
}
