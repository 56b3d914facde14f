package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrClosed      = errors.New("db: store closed")
)

// Op constants name the failing operation for error context.
const (
	OpAcquire      = "ACQUIRE"
	OpReconcile    = "RECONCILE"
	OpListContents = "LIST_CONTENTS"
	OpMatch        = "MATCH"
	OpCreateIndex  = "CREATE_INDEX"
	OpPut          = "PUT"
	OpPing         = "PING"
	OpGet          = "GET"
	OpSet          = "SET"
	OpIncrBy       = "INCRBY"
	OpExpire       = "EXPIRE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
