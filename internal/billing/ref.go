package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrRefShape reports a reference that is neither an id string nor an object.
var ErrRefShape = errors.New("billing: reference must be an id string or an object")

// Ref is a reference the backend sends either as a bare id or as the
// populated document. The zero value is an empty reference.
type Ref[T any] struct {
	id    string
	value *T
}

// RefID builds an unpopulated reference.
func RefID[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Populated builds a reference carrying the document itself.
func Populated[T any](id string, v T) Ref[T] {
	return Ref[T]{id: id, value: &v}
}

// ID returns the referenced identifier in both shapes.
func (r Ref[T]) ID() string { return r.id }

// IsZero reports an absent reference.
func (r Ref[T]) IsZero() bool { return r.id == "" && r.value == nil }

// IsPopulated reports whether the document is embedded.
func (r Ref[T]) IsPopulated() bool { return r.value != nil }

// Value returns the embedded document when present.
func (r Ref[T]) Value() (T, bool) {
	if r.value == nil {
		var zero T
		return zero, false
	}
	return *r.value, true
}

// Equal reports whether both references name the same id with the same
// embedded document.
func (r Ref[T]) Equal(o Ref[T]) bool {
	if r.id != o.id || (r.value == nil) != (o.value == nil) {
		return false
	}
	return r.value == nil || reflect.DeepEqual(*r.value, *o.value)
}

// Resolve folds a reference into R. populated handles the embedded document,
// bare handles the id-only shape and the empty reference (with id "").
func Resolve[T, R any](r Ref[T], populated func(T) R, bare func(id string) R) R {
	if r.value != nil {
		return populated(*r.value)
	}
	return bare(r.id)
}

// MarshalJSON writes the document when populated, otherwise the id.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.value != nil {
		return json.Marshal(r.value)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts null, an id string, or an object carrying "_id".
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref[T]{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.id)
	case '{':
		var head struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return fmt.Errorf("billing: decode reference id: %w", err)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("billing: decode reference: %w", err)
		}
		r.id = head.ID
		r.value = &v
		return nil
	default:
		return ErrRefShape
	}
}
