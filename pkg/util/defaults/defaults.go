package defaults

// Default[T] returns the zero value for any generic type.
func Default[T any]() T {
	var t T
	return t
}
