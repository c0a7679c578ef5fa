package models

import (
	"errors"
	"strings"
)

// Error codes shared by the services, the stores and the HTTP layer.
const (
	EInternal     = "internal error"
	ENotFound     = "not found"
	EConflict     = "conflict"
	EInvalid      = "invalid"
	EUnauthorized = "unauthorized"
	EForbidden    = "forbidden"
	ETooLarge     = "request too large"
)

// Error is the error type returned by every layer of the API.
//
// Code targets automated handlers (HTTP status mapping).
// Msg is the human readable message shown to API consumers.
// Op and Err chain errors together in a logical stack trace.
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// Error implements the error interface by writing out the recursive messages.
func (e *Error) Error() string {
	if e.Msg != "" && e.Err != nil {
		var b strings.Builder
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
		return b.String()
	} else if e.Msg != "" {
		return e.Msg
	} else if e.Err != nil {
		return e.Err.Error()
	}
	return "<" + e.Code + ">"
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the root error, if available; otherwise returns EInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) || e == nil {
		return EInternal
	}

	if e.Code != "" {
		return e.Code
	}

	if e.Err != nil {
		return ErrorCode(e.Err)
	}

	return EInternal
}

// ErrorMessage returns the human-readable message of the error, if available.
// Otherwise returns a generic error message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) || e == nil {
		return "Erreur interne du serveur"
	}

	if e.Msg != "" {
		return e.Msg
	}

	if e.Err != nil {
		return ErrorMessage(e.Err)
	}

	return "Erreur interne du serveur"
}

// Sentinel errors the stores return for constraint and lookup failures.
var (
	ErrNotFound             = &Error{Code: ENotFound, Msg: "Ressource non trouvée"}
	ErrDuplicate            = &Error{Code: EConflict, Msg: "Cette ressource existe déjà"}
	ErrDuplicateOrderNumber = &Error{Code: EConflict, Msg: "Numéro de commande déjà utilisé"}
	ErrInsufficientStock    = &Error{Code: EConflict, Msg: "Stock insuffisant"}
	ErrNotCancellable       = &Error{Code: EInvalid, Msg: "Impossible d'annuler une commande déjà expédiée ou livrée"}
	ErrAlreadyCancelled     = &Error{Code: EInvalid, Msg: "Cette commande est déjà annulée"}
)

// NotFound builds an ENotFound error with the given message.
func NotFound(op, msg string) *Error {
	return &Error{Code: ENotFound, Op: op, Msg: msg}
}

// Invalid builds an EInvalid error with the given message.
func Invalid(op, msg string) *Error {
	return &Error{Code: EInvalid, Op: op, Msg: msg}
}

// Internal wraps err as an EInternal error.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}
