// Package apierror carries an HTTP status along with an error so handlers
// can map internal failures to API responses with a consistent JSON shape.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is an error paired with the HTTP status code it is reported with.
type Error struct {
	err    error
	status int
}

// ErrorMessage is the JSON body written for an error response.
type ErrorMessage struct {
	Message string `json:"message,omitempty"`
	Status  int    `json:"status,omitempty"`
}

var serverError []byte

func init() {
	// Make sure there is always an error body to return in case encoding
	// fails.
	eb, err := json.Marshal(&ErrorMessage{
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	})
	if err != nil {
		panic(err)
	}
	serverError = eb
}

func New(err error, status int) *Error {
	return &Error{
		err:    err,
		status: status,
	}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.status == 0 {
		return ""
	}
	if text := http.StatusText(e.status); text != "" {
		return fmt.Sprintf("%d %s", e.status, text)
	}
	return fmt.Sprintf("%d", e.status)
}

func (e *Error) Status() int {
	return e.status
}

func (e *Error) Unwrap() error {
	return e.err
}

// EncodeError returns the JSON response body for err. If err is or wraps an
// *Error then its status is included in the body.
func EncodeError(err error) []byte {
	if err == nil {
		return nil
	}

	e := ErrorMessage{
		Message: err.Error(),
	}
	var apierr *Error
	if errors.As(err, &apierr) {
		e.Status = apierr.Status()
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return serverError
	}
	return data
}
