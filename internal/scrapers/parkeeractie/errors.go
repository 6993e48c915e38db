package parkeeractie

import (
	"errors"
	"fmt"
)

var (
	ErrLoginPayloadNotFound = errors.New("login payload not found")
	ErrCsrfTokenMissing     = errors.New("csrf token missing")
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrLoginFailed          = errors.New("login failed or no account found")

	ErrPlanPayloadNotFound = errors.New("plan session payload not found")
	ErrNoActivePermit      = errors.New("no active permit")
)

// DecodeError is returned when none of the decode strategies could make sense
// of a payload, it holds the error of the last strategy.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload: %s", e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AuthError is a terminal failure of the login flow. Retrying will not help
// until the next poll.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("parkeeractie: login: %s", e.Err.Error())
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// OperationError means the portal returned a page that is structurally
// different from what the client expects.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("parkeeractie: %s: %s", e.Op, e.Err.Error())
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsCaptchaRequired reports whether the account is gated behind a captcha,
// which this client can never get past.
func IsCaptchaRequired(err error) bool {
	return errors.Is(err, ErrCaptchaRequired)
}
