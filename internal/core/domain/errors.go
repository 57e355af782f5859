package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrQuestionNotOpen    = errors.New("question is not open")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrAlreadyFinalized   = errors.New("question already finalized")
	ErrAlreadySettled     = errors.New("escrow already settled")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrNotEligible        = errors.New("voter is not eligible")
	ErrVotingClosed       = errors.New("voting closed")
	ErrUnknownPolitician  = errors.New("unknown politician")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInternal           = errors.New("internal server error")
)

// Error attaches the attempted operation and the entity it targeted to one of
// the sentinels above. errors.Is matches the wrapped sentinel.
type Error struct {
	Op     string
	Entity string
	Err    error
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with operation and entity context. Entity may be any value with a
// string form, usually a uuid.UUID.
func E(op string, entity any, err error) error {
	var name string
	switch v := entity.(type) {
	case nil:
	case string:
		name = v
	case fmt.Stringer:
		name = v.String()
	default:
		name = fmt.Sprint(v)
	}
	return &Error{Op: op, Entity: name, Err: err}
}

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrQuestionNotOpen, "question_not_open"},
	{ErrAlreadyAnswered, "already_answered"},
	{ErrAlreadyFinalized, "already_finalized"},
	{ErrAlreadySettled, "already_settled"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrNotEligible, "not_eligible"},
	{ErrVotingClosed, "voting_closed"},
	{ErrUnknownPolitician, "unknown_politician"},
	{ErrQuestionNotFound, "unknown_question"},
	{ErrAnswerNotFound, "unknown_answer"},
	{ErrUserNotFound, "unknown_user"},
	{ErrAlreadyRegistered, "already_registered"},
	{ErrForbidden, "forbidden"},
	{ErrValidation, "validation"},
}

// Code returns the stable error code for a caller-facing error. Anything that
// is not one of the recoverable sentinels reports "internal".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
