// Package ptrx converts between values and pointers for optional fields.
package ptrx

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Value returns *p, or the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// ValueOr returns *p, or fallback when p is nil.
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// String is To for string literals.
func String(v string) *string { return &v }

// Int is To for int literals.
func Int(v int) *int { return &v }

// Bool is To for bool literals.
func Bool(v bool) *bool { return &v }
