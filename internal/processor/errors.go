package processor

import "github.com/roach88/fundledger/internal/fault"

// Error is the failure type returned by Process.
type Error = fault.Error

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code fault.Code) bool {
	return fault.Is(err, code)
}

// CodeOf returns the code carried by err, or "" for foreign errors.
func CodeOf(err error) fault.Code {
	return fault.CodeOf(err)
}
