package client

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrorKind classifies a failed resolution.
type ErrorKind string

const (
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindGraphQL    ErrorKind = "graphql"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindDecode     ErrorKind = "decode"
)

const (
	graphqlErrorPrefix = "graphql: "
	non200Prefix       = "graphql: server returned a non-200 status code"
)

// ErrClientClosed is reported for resolutions requested after Close.
var ErrClientClosed = errors.New("client closed")

// QueryError is the error of a failed resolution. Message is what views
// display.
type QueryError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a QueryError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == kind
}

// classifyError maps an error from the GraphQL transport to a QueryError.
// Execution errors arrive as "graphql: <message>"; everything else is a
// failure to get a well-formed response.
func classifyError(err error) *QueryError {
	if err == nil {
		return nil
	}
	msg := err.Error()

	var urlErr *url.Error
	switch {
	case errors.As(err, &urlErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		strings.HasPrefix(msg, non200Prefix):
		return &QueryError{Kind: ErrorKindNetwork, Message: msg, Err: err}
	case strings.HasPrefix(msg, graphqlErrorPrefix):
		return &QueryError{Kind: ErrorKindGraphQL, Message: strings.TrimPrefix(msg, graphqlErrorPrefix), Err: err}
	}
	return &QueryError{Kind: ErrorKindNetwork, Message: msg, Err: err}
}
