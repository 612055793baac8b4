package model

import (
	"errors"
	"strings"
)

// Caller errors: rejected before any upstream call.
var (
	ErrMissingInput      = errors.New("missing required input")
	ErrConflictingFilter = errors.New("please select only one best ball filter option")
	ErrSameUserCompared  = errors.New("cannot compare a user with themselves")
)

// Fatal and not-found kinds.
var (
	ErrUnresolvedUser      = errors.New("user not found or invalid username")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEmptyLeague         = errors.New("no users found for league")
	ErrNotFoundInCache     = errors.New("player not found in cached results")
)

// Error is a labelled failure: Op names the sub-operation, Kind is one of the
// sentinels above, Subject optionally names what failed (e.g. which handle).
type Error struct {
	Op      string
	Kind    error
	Subject string
	Err     error
}

// NewKind builds an Error with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind builds an Error around a cause.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// WithSubject builds an Error naming the failing subject.
func WithSubject(op string, kind error, subject string, err error) error {
	return &Error{Op: op, Kind: kind, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Subject != "" {
		b.WriteString(" (")
		b.WriteString(e.Subject)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// IsCallerError reports whether err was caused by invalid caller input.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrConflictingFilter) ||
		errors.Is(err, ErrSameUserCompared)
}
