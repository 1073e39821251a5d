// Package errors provides the structured error type shared by the injectkit
// packages. Every failure raised by the registry carries a machine-readable
// ErrorCode so callers can branch on the kind of failure (arity, construction,
// cycle, ...) without matching message text.
package errors
