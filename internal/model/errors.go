package model

// Err is a ledger sentinel error. Operations wrap these with %w.
type Err string

func (e Err) Error() string { return string(e) }

const (
	ErrNotFound           = Err("not found")
	ErrUnauthorized       = Err("unauthorized")
	ErrInvalidState       = Err("invalid state")
	ErrDeadlinePassed     = Err("deadline passed")
	ErrDeadlineNotReached = Err("deadline not reached")
	ErrTransferFailed     = Err("transfer failed")
	ErrInvalidArgument    = Err("invalid argument")
	ErrConflict           = Err("conflict")
)
