package api

import (
	"errors"
	"fmt"
)

// StructuralError is a well-formed response indicating the operation did not succeed.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// TransportError means the exchange could not be completed or its response
// could not be parsed at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is the cause of a TransportError whose response arrived but
// whose body was not the expected JSON.
type DecodeError struct {
	Code int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response (HTTP %d): %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecode reports whether err is (or wraps) a *DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// StatusError is returned by the binary download endpoints on a non-2xx status.
// Those endpoints carry no message the client can show.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// IsStatus reports whether err is (or wraps) a *StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsStructural reports whether err is (or wraps) a *StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Describe returns the part of err that is meant for a person to read.
// Transport errors are reduced to their cause so the operation prefix isn't
// repeated in messages that already name the action.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Err != nil {
		return te.Err.Error()
	}
	return err.Error()
}
