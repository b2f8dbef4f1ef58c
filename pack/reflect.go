package pack

import "reflect"

// reflectTuple structurally decomposes a record value into its ordered,
// exported field list — the Go analogue of the reference implementation's
// compile-time to_tuple<T>(). Go has no derive step, so this runs once per
// pack/unpack call instead of once per build, but the contract is the same:
// the same struct type yields the same field order on both peers as long as
// both peers are built from the same Go struct definition.
func reflectTuple(rv reflect.Value) ([]reflect.Value, error) {
	t := rv.Type()
	if t.NumField() > MaxRecordFields {
		return nil, ErrTooManyFields
	}
	fields := make([]reflect.Value, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported, not part of the wire contract
			continue
		}
		fields = append(fields, rv.Field(i))
	}
	return fields, nil
}
