package cil

import "fmt"

// UnsupportedError reports a construct the backend has no lowering rule for.
// It aborts lowering of the enclosing function.
type UnsupportedError struct {
	Construct string
}

func (e *UnsupportedError) Error() string {
	return "unsupported: " + e.Construct
}

// Unsupported aborts lowering with an *UnsupportedError.
// The panic is recovered at the function boundary by the lowering driver.
func Unsupported(format string, args ...any) {
	panic(&UnsupportedError{Construct: fmt.Sprintf(format, args...)})
}
