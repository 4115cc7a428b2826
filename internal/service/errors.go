package service

import "errors"

// Recoverable application errors surfaced to callers with a human-readable
// message. The httpapi layer maps these to status codes.
var (
	// ErrValidation wraps input validation failures whose message is safe
	// to return to the client verbatim.
	ErrValidation = errors.New("validation failed")

	ErrNotRoomMember    = errors.New("user is not a member of this room")
	ErrAlreadyMember    = errors.New("user is already a member of this room")
	ErrRoomFull         = errors.New("room is full")
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrEmptyApplyTo   = errors.New("invoice must apply to at least one member")
	ErrNotApplicable  = errors.New("user is not obligated to pay this invoice")
	ErrAlreadySettled = errors.New("share already paid in full")
	ErrNotPayable     = errors.New("allocation is not final yet, payment is blocked")

	ErrInvalidDay    = errors.New("day index out of range for month")
	ErrInvalidStatus = errors.New("invalid presence status")
)
