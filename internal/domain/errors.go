package domain

import (
	"errors"
	"fmt"
)

// Kind classifies ledger errors for transport mapping and retry policy.
type Kind int

const (
	// KindValidation rejects a request before any mutation.
	KindValidation Kind = iota + 1
	// KindNotFound means an account or statement id is unknown.
	KindNotFound
	// KindConflict is a concurrent-modification signal; the whole call
	// may be safely retried.
	KindConflict
	// KindInternal is a repository or storage failure after which the
	// transaction has been rolled back.
	KindInternal
)

// Error carries the taxonomy kind along with a stable machine code.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation rule violations. Returned synchronously with no state change.
var (
	ErrUnknownContract            = &Error{Kind: KindValidation, Code: "UNKNOWN_CONTRACT", Msg: "unknown contract code"}
	ErrVolumeOutOfRange           = &Error{Kind: KindValidation, Code: "VOLUME_OUT_OF_RANGE", Msg: "volume outside contract limits"}
	ErrUnknownStrategy            = &Error{Kind: KindValidation, Code: "UNKNOWN_STRATEGY", Msg: "unrecognized strategy/action/direction combination"}
	ErrInvalidOptionTerms         = &Error{Kind: KindValidation, Code: "INVALID_OPTION_TERMS", Msg: "option trade requires strike price and premium"}
	ErrInvalidPrice               = &Error{Kind: KindValidation, Code: "INVALID_PRICE", Msg: "price must be positive"}
	ErrNoPositionToClose          = &Error{Kind: KindValidation, Code: "NO_POSITION_TO_CLOSE", Msg: "no open position to close"}
	ErrCloseVolumeExceedsPosition = &Error{Kind: KindValidation, Code: "CLOSE_VOLUME_EXCEEDS_POSITION", Msg: "close volume exceeds open interest"}
	ErrInvalidAmount              = &Error{Kind: KindValidation, Code: "INVALID_AMOUNT", Msg: "amount must be positive"}
	ErrInvalidOwner               = &Error{Kind: KindValidation, Code: "INVALID_OWNER", Msg: "account owner must not be empty"}
	ErrInsufficientFunds          = &Error{Kind: KindValidation, Code: "INSUFFICIENT_FUNDS", Msg: "withdrawal exceeds current equity"}
	ErrInvalidPeriod              = &Error{Kind: KindValidation, Code: "INVALID_PERIOD", Msg: "period start must precede period end"}
)

// NotFound reports an unknown entity id.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Msg: fmt.Sprintf("%s %s not found", entity, id)}
}

// Conflictf reports a concurrent-modification conflict.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps a repository or storage failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Msg: msg, Err: err}
}

// Internalf reports an internal invariant violation.
func Internalf(format string, args ...any) error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
