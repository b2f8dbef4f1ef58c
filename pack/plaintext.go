package pack

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// PlainText is the reference codec: ASCII-printable, space-delimited
// tokens. It is intentionally human-readable rather than compact — see
// spec's note that a binary codec is a separate, pluggable concern.
var PlainText Codec = plainText{}

type plainText struct{}

func (plainText) NewSerializer() Serializer {
	return &plainTextSerializer{}
}

func (plainText) NewDeserializer(buf []byte) Deserializer {
	return &plainTextDeserializer{buf: buf}
}

type plainTextSerializer struct {
	buf strings.Builder
}

func (s *plainTextSerializer) Pack(v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return fmt.Errorf("%w: nil value", ErrMalformed)
	}
	return packValue(&s.buf, rv)
}

func (s *plainTextSerializer) Buffer() []byte {
	return []byte(s.buf.String())
}

// packValue writes one wire-form value, including its own trailing
// delimiter. Container element counts never carry the hex exception below —
// that applies only to single-byte integers, never to lengths, matching the
// reference implementation's inconsistency (preserved for interop, not
// "fixed" — see spec's Open Questions).
func packValue(w *strings.Builder, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			w.WriteString("1 ")
		} else {
			w.WriteString("0 ")
		}
		return nil

	case reflect.Int8:
		fmt.Fprintf(w, "%x ", uint16(int8(rv.Int())))
		return nil
	case reflect.Uint8:
		fmt.Fprintf(w, "%x ", uint16(rv.Uint()))
		return nil

	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		fmt.Fprintf(w, "%d ", rv.Int())
		return nil
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		fmt.Fprintf(w, "%d ", rv.Uint())
		return nil

	case reflect.Float32:
		w.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 32))
		w.WriteString(" ")
		return nil
	case reflect.Float64:
		w.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
		w.WriteString(" ")
		return nil

	case reflect.String:
		writeQuoted(w, rv.String())
		w.WriteString(" ")
		return nil

	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := packValue(w, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		if rv.IsNil() {
			fmt.Fprintf(w, "%d ", 0)
			return nil
		}
		fmt.Fprintf(w, "%d ", rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := packValue(w, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		keys := rv.MapKeys()
		fmt.Fprintf(w, "%d ", len(keys))
		for _, k := range keys {
			if err := packValue(w, k); err != nil {
				return err
			}
			if err := packValue(w, rv.MapIndex(k)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Ptr:
		if rv.IsNil() {
			return fmt.Errorf("%w: nil pointer", ErrMalformed)
		}
		return packValue(w, rv.Elem())

	case reflect.Interface:
		if rv.IsNil() {
			return fmt.Errorf("%w: nil interface", ErrMalformed)
		}
		return packValue(w, rv.Elem())

	case reflect.Struct:
		fields, err := reflectTuple(rv)
		if err != nil {
			return err
		}
		for _, f := range fields {
			if err := packValue(w, f); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported type %s", ErrMalformed, rv.Type())
	}
}

// writeQuoted mimics std::quoted's default behavior: wrap in double quotes,
// backslash-escape only '"' and '\'.
func writeQuoted(w *strings.Builder, s string) {
	w.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			w.WriteByte('\\')
		}
		w.WriteRune(r)
	}
	w.WriteByte('"')
}

type plainTextDeserializer struct {
	buf []byte
	pos int
}

func (d *plainTextDeserializer) Unpack(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrNotPointer
	}
	return unpackValue(d, rv.Elem())
}

func unpackValue(d *plainTextDeserializer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		tok, err := d.token()
		if err != nil {
			return err
		}
		rv.SetBool(tok == "1")
		return nil

	case reflect.Int8:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(tok, 16, 16)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rv.SetInt(int64(int8(uint8(n))))
		return nil
	case reflect.Uint8:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(tok, 16, 16)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rv.SetUint(uint64(uint8(n)))
		return nil

	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(tok, 10, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		rv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(tok, 10, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		rv.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		tok, err := d.token()
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(tok, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rv.SetFloat(f)
		return nil

	case reflect.String:
		s, err := d.quoted()
		if err != nil {
			return err
		}
		rv.SetString(s)
		return nil

	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := unpackValue(d, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad slice length", ErrMalformed)
		}
		out := reflect.MakeSlice(rv.Type(), n, n)
		for i := 0; i < n; i++ {
			if err := unpackValue(d, out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
		return nil

	case reflect.Map:
		tok, err := d.token()
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad map length", ErrMalformed)
		}
		out := reflect.MakeMapWithSize(rv.Type(), n)
		keyType, valType := rv.Type().Key(), rv.Type().Elem()
		for i := 0; i < n; i++ {
			key := reflect.New(keyType).Elem()
			if err := unpackValue(d, key); err != nil {
				return err
			}
			val := reflect.New(valType).Elem()
			if err := unpackValue(d, val); err != nil {
				return err
			}
			out.SetMapIndex(key, val)
		}
		rv.Set(out)
		return nil

	case reflect.Ptr:
		out := reflect.New(rv.Type().Elem())
		if err := unpackValue(d, out.Elem()); err != nil {
			return err
		}
		rv.Set(out)
		return nil

	case reflect.Struct:
		fields, err := reflectTuple(rv)
		if err != nil {
			return err
		}
		for _, f := range fields {
			if err := unpackValue(d, f); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported type %s", ErrMalformed, rv.Type())
	}
}

func (d *plainTextDeserializer) skipSpace() {
	for d.pos < len(d.buf) && d.buf[d.pos] == ' ' {
		d.pos++
	}
}

func (d *plainTextDeserializer) token() (string, error) {
	d.skipSpace()
	if d.pos >= len(d.buf) {
		return "", ErrTruncated
	}
	start := d.pos
	for d.pos < len(d.buf) && d.buf[d.pos] != ' ' {
		d.pos++
	}
	tok := string(d.buf[start:d.pos])
	d.skipSpace()
	return tok, nil
}

// quoted reads one std::quoted-style token: a leading '"', backslash
// escapes for '"' and '\', and a closing '"'.
func (d *plainTextDeserializer) quoted() (string, error) {
	d.skipSpace()
	if d.pos >= len(d.buf) {
		return "", ErrTruncated
	}
	if d.buf[d.pos] != '"' {
		return "", fmt.Errorf("%w: expected opening quote", ErrMalformed)
	}
	d.pos++

	var sb strings.Builder
	for {
		if d.pos >= len(d.buf) {
			return "", ErrTruncated
		}
		c := d.buf[d.pos]
		if c == '\\' {
			d.pos++
			if d.pos >= len(d.buf) {
				return "", ErrTruncated
			}
			sb.WriteByte(d.buf[d.pos])
			d.pos++
			continue
		}
		if c == '"' {
			d.pos++
			break
		}
		sb.WriteByte(c)
		d.pos++
	}
	d.skipSpace()
	return sb.String(), nil
}
