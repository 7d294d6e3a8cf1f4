// Package instrument holds per-asset-class metadata records whose fields may
// be missing, and the helpers that turn them into display strings.
package instrument

import (
	"encoding/json"
	"math"
)

// NotAvailable is the display placeholder for a missing value.
const NotAvailable = "N/A"

// Value is an optional metadata field: either Some(v) or Unavailable.
type Value[T any] struct {
	v  T
	ok bool
}

// Some wraps a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// Unavailable is the empty Value.
func Unavailable[T any]() Value[T] {
	return Value[T]{}
}

// Float wraps a provider number, treating nil and non-finite values as missing.
func Float(p *float64) Value[float64] {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return Unavailable[float64]()
	}
	return Some(*p)
}

// Text wraps a provider string, treating the empty string as missing.
func Text(s string) Value[string] {
	if s == "" {
		return Unavailable[string]()
	}
	return Some(s)
}

// Get returns the value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.ok
}

// Present reports whether a value is set.
func (v Value[T]) Present() bool {
	return v.ok
}

// Or returns the value or def when missing.
func (v Value[T]) Or(def T) T {
	if !v.ok {
		return def
	}
	return v.v
}

// Display formats a present value with f, or returns NotAvailable.
func Display[T any](v Value[T], f func(T) string) string {
	if x, ok := v.Get(); ok {
		return f(x)
	}
	return NotAvailable
}

// MarshalJSON encodes a missing value as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as Unavailable.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value[T]{}
		return nil
	}
	var x T
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	*v = Some(x)
	return nil
}
