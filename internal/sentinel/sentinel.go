// Package sentinel provides an error type that can be declared as a constant.
package sentinel

var _ error = Error("")

// Error is an immutable error backed by a string. Values compare with ==,
// so errors.Is works through wrapped chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
