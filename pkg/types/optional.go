package types

// Optional marks a patch field as supplied or not. The zero value is
// "not supplied". For nullable fields T is a pointer type, and a supplied
// nil Value clears the field.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// apply writes o.Value to dst when o is supplied.
func (o Optional[T]) apply(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}
