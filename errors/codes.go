package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registration errors
const (
	// ErrCodeArity indicates a factory declares more than one parameter.
	ErrCodeArity ErrorCode = "ARITY"
	// ErrCodeInvalidFactory indicates a factory signature the registry cannot call.
	ErrCodeInvalidFactory ErrorCode = "INVALID_FACTORY"
	// ErrCodeTypeMismatch indicates a value that is not assignable to its key's type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeMissingSingletonValue indicates a singleton entry was built without a value.
	ErrCodeMissingSingletonValue ErrorCode = "MISSING_SINGLETON_VALUE"
)

// Resolution errors
const (
	// ErrCodeConstruction indicates a type could not be constructed.
	ErrCodeConstruction ErrorCode = "CONSTRUCTION_FAILED"
	// ErrCodeCycle indicates a key was requested while it was still under construction.
	ErrCodeCycle ErrorCode = "CYCLE_DETECTED"
)

// Resource and input errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Construction can depend on external state (a constructor opening a
// connection, say), so retrying may succeed. Everything else is a
// programming error.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeConstruction: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
