package cli

import (
	"errors"
	"fmt"

	"filedesk-cli/internal/api"
)

// rejectedError is a well-formed success:false answer from the service.
type rejectedError struct {
	op      string
	message string
}

func (e rejectedError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.op, e.message)
}

// checkResp folds the two failure tiers of a JSON call into one error.
func checkResp(op string, r api.Response, err error) error {
	if err != nil {
		return err
	}
	var se *api.StructuralError
	if errors.As(r.Err(), &se) {
		return rejectedError{op: op, message: se.Error()}
	}
	return nil
}

type downloadError struct {
	name string
	err  error
}

func (e downloadError) Error() string {
	if api.IsStatus(e.err) {
		return "download failed for " + e.name
	}
	return fmt.Sprintf("error downloading %s: %s", e.name, api.Describe(e.err))
}

func (e downloadError) Unwrap() error { return e.err }

var errEmptyName = errors.New("please enter a filename")
