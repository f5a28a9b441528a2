package api

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindRejected is a 4xx answer: bad credentials, expired session, invalid input.
	KindRejected ErrorKind = iota + 1
	// KindUnavailable covers transport failures and 5xx answers.
	KindUnavailable
	// KindDecode is a 2xx answer whose body could not be read.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that did not produce a usable 2xx reply.
type Error struct {
	Kind    ErrorKind
	Op      string // endpoint path
	Status  int    // 0 when no response arrived
	Message string // server-provided message, if any
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func IsRejected(err error) bool {
	return kindOf(err) == KindRejected
}

// IsUnavailable reports whether err means the backend could not be reached or failed
// internally. Errors that did not come from the client count as unavailable.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	k := kindOf(err)
	return k == KindUnavailable || k == 0
}

// ServerMessage returns the message carried by a backend error, or "".
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
