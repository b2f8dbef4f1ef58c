package rpclog

import (
	"errors"
	"testing"
)

func TestDiscardDropsErrors(t *testing.T) {
	Discard(errors.New("boom"))
}

func TestNewReturnsUsableHandler(t *testing.T) {
	h := New("test")
	h(errors.New("boom"))
	h(nil)
}

func TestRecoveredWrapsErrorAndValue(t *testing.T) {
	if err := Recovered(nil); err != nil {
		t.Fatalf("Recovered(nil) = %v, want nil", err)
	}
	if err := Recovered(errors.New("panic value")); err == nil {
		t.Fatal("expected a non-nil error")
	}
	if err := Recovered("some string"); err == nil {
		t.Fatal("expected a non-nil error")
	}
}

func TestDefaultIsMemoized(t *testing.T) {
	a := Default()
	b := Default()
	if a == nil || b == nil {
		t.Fatal("Default() returned nil")
	}

	saved := defaultHandler
	defer func() { defaultHandler = saved }()
	called := false
	defaultHandler = func(error) { called = true }
	Default()(nil)
	if !called {
		t.Fatal("Default() rebuilt its handler instead of returning the memoized one")
	}
}
