// Package stdx holds small generic helpers that the standard library does not provide.
package stdx

// Must1 panics when err is not nil and otherwise returns v.
// It is meant for package level initialisation where a failure is a programming error,
// such as declaring a tool with tool.Must.
//
// Parameters:
//   - v: The value to return.
//   - err: The error produced alongside v.
//
// Returns:
//   - T: v, when err is nil.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Ptr returns a pointer to a copy of v.
// State updates use pointers to tell "leave unchanged" apart from "set to the zero value".
//
// Parameters:
//   - v: The value to copy.
//
// Returns:
//   - *T: A pointer to the copy.
func Ptr[T any](v T) *T {
	return &v
}
