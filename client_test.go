package nanorpc

import (
	"context"
	"errors"
	"testing"

	"nanorpc/pack"
)

// loopback wires a Client directly to a Server's Dispatch, skipping any
// transport — these tests exercise the framing/registry/client contract in
// isolation from transport/http.
func loopback(srv *Server) Sender {
	return func(_ context.Context, req []byte) ([]byte, error) {
		return srv.Dispatch(req)
	}
}

func TestEchoScenario(t *testing.T) {
	srv := NewServer(pack.PlainText)
	if err := srv.Handle("test", func(s string) (string, error) {
		return "Tested: " + s, nil
	}); err != nil {
		t.Fatal(err)
	}

	client := NewClient(pack.PlainText, loopback(srv))
	result, err := client.Call(context.Background(), "test", "abc")
	if err != nil {
		t.Fatal(err)
	}
	var got string
	if err := result.As(&got); err != nil {
		t.Fatal(err)
	}
	if got != "Tested: abc" {
		t.Errorf("got %q", got)
	}
}

func TestPingScenario(t *testing.T) {
	srv := NewServer(pack.PlainText)
	called := false
	if err := srv.Handle("ping", func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	client := NewClient(pack.PlainText, loopback(srv))
	result, err := client.Call(context.Background(), "ping")
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("handler was not invoked")
	}
	if err := result.Void(); err != nil {
		t.Errorf("Void(): %v", err)
	}
}

type employeeRecord struct {
	Name   string
	Salary int32
}

func TestCRUDScenario(t *testing.T) {
	srv := NewServer(pack.PlainText)
	store := map[string]employeeRecord{}

	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(srv.Handle("create", func(id string, e employeeRecord) (string, error) {
		store[id] = e
		return id, nil
	}))
	must(srv.Handle("read", func(id string) (employeeRecord, error) {
		e, ok := store[id]
		if !ok {
			return employeeRecord{}, errors.New("not found")
		}
		return e, nil
	}))
	must(srv.Handle("update", func(id string, e employeeRecord) error {
		if _, ok := store[id]; !ok {
			return errors.New("not found")
		}
		store[id] = e
		return nil
	}))
	must(srv.Handle("delete", func(id string) error {
		if _, ok := store[id]; !ok {
			return errors.New("not found")
		}
		delete(store, id)
		return nil
	}))

	client := NewClient(pack.PlainText, loopback(srv))
	ctx := context.Background()

	e := employeeRecord{Name: "Ada", Salary: 1000}
	res, err := client.Call(ctx, "create", "e1", e)
	if err != nil {
		t.Fatal(err)
	}
	var id string
	must(res.As(&id))
	if id != "e1" {
		t.Fatalf("create returned %q", id)
	}

	res, err = client.Call(ctx, "read", "e1")
	if err != nil {
		t.Fatal(err)
	}
	var got employeeRecord
	must(res.As(&got))
	if got != e {
		t.Fatalf("read returned %+v, want %+v", got, e)
	}

	e2 := employeeRecord{Name: "Ada", Salary: 2000}
	res, err = client.Call(ctx, "update", "e1", e2)
	if err != nil {
		t.Fatal(err)
	}
	must(res.Void())

	res, err = client.Call(ctx, "read", "e1")
	if err != nil {
		t.Fatal(err)
	}
	must(res.As(&got))
	if got != e2 {
		t.Fatalf("read after update returned %+v, want %+v", got, e2)
	}

	res, err = client.Call(ctx, "delete", "e1")
	if err != nil {
		t.Fatal(err)
	}
	must(res.Void())

	// Second delete: the handler itself errors, which on a real transport
	// surfaces as an HTTP 500 / TransportError::SendFailed. Over the
	// loopback Sender used here, Dispatch's HandlerError comes straight
	// back to the caller.
	_, err = client.Call(ctx, "delete", "e1")
	if err == nil {
		t.Fatal("expected error deleting an already-deleted record")
	}
	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HandlerError, got %T: %v", err, err)
	}
}

func TestUnknownProcedure(t *testing.T) {
	srv := NewServer(pack.PlainText)
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(srv.Handle("known", func() error { return nil }))

	client := NewClient(pack.PlainText, loopback(srv))
	_, err := client.Call(context.Background(), "never-registered")
	if err == nil {
		t.Fatal("expected an error calling an unregistered procedure")
	}
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != UnknownProcedure {
		t.Fatalf("expected DispatchError{UnknownProcedure}, got %T: %v", err, err)
	}
}

func TestResultAsRejectsTypeChange(t *testing.T) {
	srv := NewServer(pack.PlainText)
	if err := srv.Handle("greet", func(s string) (string, error) {
		return "hi " + s, nil
	}); err != nil {
		t.Fatal(err)
	}

	client := NewClient(pack.PlainText, loopback(srv))
	res, err := client.Call(context.Background(), "greet", "bob")
	if err != nil {
		t.Fatal(err)
	}
	var s string
	if err := res.As(&s); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := res.As(&n); err == nil {
		t.Fatal("expected an error decoding the same result as a different type")
	}
	// Re-decoding as the original type still works and returns the
	// memoized value.
	var s2 string
	if err := res.As(&s2); err != nil {
		t.Fatal(err)
	}
	if s2 != s {
		t.Errorf("memoized result changed: %q vs %q", s, s2)
	}
}

func TestProtocolVersionMismatch(t *testing.T) {
	srv := NewServer(pack.PlainText)
	if err := srv.Handle("known", func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	ser := pack.PlainText.NewSerializer()
	if err := ser.Pack(Header{ProtocolVersion: 99, ProcedureID: HashName("known")}); err != nil {
		t.Fatal(err)
	}
	_, err := srv.Dispatch(ser.Buffer())
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != UnsupportedProtocol {
		t.Fatalf("expected DispatchError{UnsupportedProtocol}, got %T: %v", err, err)
	}
}
