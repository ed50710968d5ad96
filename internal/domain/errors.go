package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrInvalidState          = errors.New("operation not allowed in current state")
	ErrNotEligible           = errors.New("voter is not a member of the proposal team")
	ErrDuplicateVote         = errors.New("member has already voted on this proposal")
	ErrExpired               = errors.New("voting period has expired")
	ErrNoContributions       = errors.New("no eligible contributions in period")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency key reused with different payload")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrUnsupportedEventClass = errors.New("unsupported event class")
)
