package pack

import (
	"reflect"
	"testing"
)

type employee struct {
	ID     string
	Name   string
	Age    uint8
	Active bool
	Tags   []string
	Scores map[string]int32
}

func roundTrip[T any](t *testing.T, codec Codec, v T) T {
	t.Helper()
	ser := codec.NewSerializer()
	if err := ser.Pack(v); err != nil {
		t.Fatalf("Pack(%v): %v", v, err)
	}
	deser := codec.NewDeserializer(ser.Buffer())
	var out T
	if err := deser.Unpack(&out); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	return out
}

func TestPlainTextPrimitives(t *testing.T) {
	if got := roundTrip(t, PlainText, 42); got != 42 {
		t.Errorf("int round trip: got %d", got)
	}
	if got := roundTrip(t, PlainText, -7); got != -7 {
		t.Errorf("negative int round trip: got %d", got)
	}
	if got := roundTrip(t, PlainText, uint64(1)<<40); got != uint64(1)<<40 {
		t.Errorf("uint64 round trip: got %d", got)
	}
	if got := roundTrip(t, PlainText, 3.14159); got != 3.14159 {
		t.Errorf("float round trip: got %v", got)
	}
	if got := roundTrip(t, PlainText, true); !got {
		t.Errorf("bool round trip: got %v", got)
	}
	if got := roundTrip(t, PlainText, false); got {
		t.Errorf("bool round trip: got %v", got)
	}
}

func TestPlainTextSingleByteIsHex(t *testing.T) {
	ser := PlainText.NewSerializer()
	if err := ser.Pack(int8(-1)); err != nil {
		t.Fatal(err)
	}
	if got := string(ser.Buffer()); got != "ffff " {
		t.Errorf("int8(-1) should encode as hex ffff, got %q", got)
	}

	ser = PlainText.NewSerializer()
	if err := ser.Pack(uint8(255)); err != nil {
		t.Fatal(err)
	}
	if got := string(ser.Buffer()); got != "ff " {
		t.Errorf("uint8(255) should encode as hex ff, got %q", got)
	}

	// Wider integers stay decimal even at the same magnitude.
	ser = PlainText.NewSerializer()
	if err := ser.Pack(int32(255)); err != nil {
		t.Fatal(err)
	}
	if got := string(ser.Buffer()); got != "255 " {
		t.Errorf("int32(255) should stay decimal, got %q", got)
	}
}

func TestPlainTextStrings(t *testing.T) {
	cases := []string{"", "hello", `with "quotes" and \backslash\`, "unicode: 日本語"}
	for _, s := range cases {
		if got := roundTrip(t, PlainText, s); got != s {
			t.Errorf("string round trip: want %q, got %q", s, got)
		}
	}
}

func TestPlainTextSliceAndMap(t *testing.T) {
	in := []int{1, 2, 3}
	if got := roundTrip(t, PlainText, in); !reflect.DeepEqual(got, in) {
		t.Errorf("slice round trip: want %v, got %v", in, got)
	}

	var empty []int
	got := roundTrip(t, PlainText, empty)
	if len(got) != 0 {
		t.Errorf("empty slice round trip: want empty, got %v", got)
	}

	m := map[string]int32{"a": 1, "b": 2}
	if got := roundTrip(t, PlainText, m); !reflect.DeepEqual(got, m) {
		t.Errorf("map round trip: want %v, got %v", m, got)
	}
}

func TestPlainTextRecord(t *testing.T) {
	e := employee{
		ID:     "e1",
		Name:   "Ada Lovelace",
		Age:    36,
		Active: true,
		Tags:   []string{"math", "engines"},
		Scores: map[string]int32{"x": 1},
	}
	got := roundTrip(t, PlainText, e)
	if !reflect.DeepEqual(got, e) {
		t.Errorf("record round trip: want %+v, got %+v", e, got)
	}
}

func TestPlainTextConcatenatedStream(t *testing.T) {
	ser := PlainText.NewSerializer()
	if err := ser.Pack(uint32(1)); err != nil {
		t.Fatal(err)
	}
	if err := ser.Pack("abc"); err != nil {
		t.Fatal(err)
	}
	deser := PlainText.NewDeserializer(ser.Buffer())
	var n uint32
	var s string
	if err := deser.Unpack(&n); err != nil {
		t.Fatal(err)
	}
	if err := deser.Unpack(&s); err != nil {
		t.Fatal(err)
	}
	if n != 1 || s != "abc" {
		t.Errorf("got n=%d s=%q", n, s)
	}
}

func TestPlainTextTruncated(t *testing.T) {
	deser := PlainText.NewDeserializer(nil)
	var n int
	if err := deser.Unpack(&n); err == nil {
		t.Fatal("expected truncated error on empty stream")
	}
}

func TestPlainTextMalformedString(t *testing.T) {
	deser := PlainText.NewDeserializer([]byte("not-quoted "))
	var s string
	if err := deser.Unpack(&s); err == nil {
		t.Fatal("expected malformed error for unquoted string")
	}
}

func TestMaxRecordFields(t *testing.T) {
	// A struct within the limit round-trips fine; reflectTuple itself is
	// exercised via the record test above. This just pins the constant.
	if MaxRecordFields != 64 {
		t.Errorf("MaxRecordFields changed: %d", MaxRecordFields)
	}
}
