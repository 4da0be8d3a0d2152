package errors

import "fmt"

// Session and routing failures. Call sites wrap these with %w plus the
// offending identifiers so callers can both errors.Is and inspect.
var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrInactiveRoom    = fmt.Errorf("room is not active")
	ErrAlreadyMember   = fmt.Errorf("already a participant")
	ErrNotMember       = fmt.Errorf("not a participant")
	ErrRoomFull        = fmt.Errorf("room is full")
	ErrRoomNameTooLong = fmt.Errorf("room name too long")
	ErrSlotFull        = fmt.Errorf("slot capacity exceeded")
	ErrPayloadTooLarge = fmt.Errorf("payload exceeds maximum size")
	ErrTooManyTargets  = fmt.Errorf("too many broadcast targets")
)

// Growth controller failures. ErrNoGrowthNeeded is returned by the ledger
// collaborator and treated as terminal success by the controller, never
// surfaced to its caller.
var (
	ErrTargetTooLarge   = fmt.Errorf("growth target exceeds maximum unit size")
	ErrGrowthIncomplete = fmt.Errorf("growth step budget exhausted before target")
	ErrNoGrowthNeeded   = fmt.Errorf("no growth needed")
)

// Runtime and auth failures.
var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
