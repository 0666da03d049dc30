// Package overlay implements the three-state field used for MediaItem
// metadata: a field is either Undefined (no opinion, fall through to the
// selected MediaFile), explicitly Null (force empty even if the file has
// a value), or a concrete Value overriding the file's own field.
package overlay

// State distinguishes the three cases a Field can be in.
type State uint8

const (
	Undefined State = iota
	Null
	Value
)

// Field is a generic overlay value. The zero Field is Undefined.
type Field[T comparable] struct {
	state State
	value T
}

// Unset returns an Undefined field.
func Unset[T comparable]() Field[T] {
	return Field[T]{state: Undefined}
}

// Nulled returns an explicitly-Null field.
func Nulled[T comparable]() Field[T] {
	return Field[T]{state: Null}
}

// Of returns a field carrying an explicit value.
func Of[T comparable](v T) Field[T] {
	return Field[T]{state: Value, value: v}
}

func (f Field[T]) State() State { return f.state }
func (f Field[T]) IsUndefined() bool { return f.state == Undefined }
func (f Field[T]) IsNull() bool      { return f.state == Null }
func (f Field[T]) IsValue() bool     { return f.state == Value }

// Resolve implements the read-overlay rule (spec invariant 3): the
// item's own field wins when it is Null or a Value; an Undefined item
// field falls through to the file's value.
func Resolve[T comparable](item Field[T], fileValue T) T {
	switch item.state {
	case Value:
		return item.value
	case Null:
		var zero T
		return zero
	default:
		return fileValue
	}
}

// Collapse computes the overlay state that should be *stored* on the item
// given its desired logical value and the file's value: Undefined when
// they're equal (nothing to override), otherwise a Value override. This
// is the write-side of invariant 3 — fields null out automatically when
// they stop differing from the selected file.
func Collapse[T comparable](desired, fileValue T) Field[T] {
	if desired == fileValue {
		return Unset[T]()
	}
	return Of(desired)
}

// CollapseWithEquality is Collapse generalized to a caller-supplied
// equality predicate, used for the `taken` timestamp field where
// sub-second differences must also collapse to Undefined (spec invariant
// 3's documented exception).
func CollapseWithEquality[T comparable](desired, fileValue T, equal func(a, b T) bool) Field[T] {
	if equal(desired, fileValue) {
		return Unset[T]()
	}
	return Of(desired)
}

// Raw returns the field's stored override value (zero value if not a
// Value), along with whether it carries one. Useful for persistence
// layers that need to serialize the override distinctly from "defers to
// file".
func (f Field[T]) Raw() (T, bool) {
	return f.value, f.state == Value
}
