package netbox

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentials is returned when NetBox refuses the API token.
	ErrCredentials = errors.New("netbox refused the credentials")
	// ErrServer is returned when NetBox keeps answering with 5xx.
	ErrServer = errors.New("netbox server error")
)

// ResponseError describes a response that aborts the query.
type ResponseError struct {
	URL        string
	StatusCode int
	Message    string

	kind error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %d on '%s': %s", e.kind, e.StatusCode, e.URL, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.kind
}
