package graphql

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// Error codes carried in the "code" extension of every gateway error
const (
	codeBackendUnavailable = "BACKEND_UNAVAILABLE"
	codeTimeout            = "TIMEOUT"
	codeCancelled          = "CANCELLED"
	codeInvalidInput       = "INVALID_INPUT"
	codeInternal           = "INTERNAL_ERROR"
	codeQuery              = "QUERY_ERROR"
	codeParse              = "GRAPHQL_PARSE_FAILED"
	codeValidation         = "GRAPHQL_VALIDATION_FAILED"
)

// mapError converts gateway and backend errors to GraphQL errors with appropriate error codes
func mapError(err error, operation string) *gqlerror.Error {
	if err == nil {
		return nil
	}

	// If already a GraphQL error, return as-is
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(codeTimeout, operation, "Query timeout exceeded")

	case errors.Is(err, context.Canceled):
		return newError(codeCancelled, operation, "Query cancelled")

	case errors.Is(err, errors.ErrBackendUnavailable):
		e := newError(codeBackendUnavailable, operation, "Backend unavailable: %s", err.Error())
		e.Extensions["retryable"] = true
		return e
	}

	if errors.IsInvalid(err) {
		return newError(codeInvalidInput, operation, "Invalid input: %s", err.Error())
	}

	if errors.IsFatal(err) {
		return newError(codeInternal, operation, "Internal server error")
	}

	// Generic error
	return newError(codeQuery, operation, "Query failed: %s", err.Error())
}

// newError builds a GraphQL error tagged with code and operation
func newError(code, operation, format string, args ...any) *gqlerror.Error {
	ext := map[string]interface{}{"code": code}
	if operation != "" {
		ext["operation"] = operation
	}
	return &gqlerror.Error{
		Message:    fmt.Sprintf(format, args...),
		Extensions: ext,
	}
}

// fieldError is mapError positioned at a root field
func fieldError(err error, field *ast.Field) *gqlerror.Error {
	e := mapError(err, field.Name)
	e.Path = ast.Path{ast.PathName(field.Alias)}
	if field.Position != nil {
		e.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	return e
}

func introspectionDisabled() *gqlerror.Error {
	return newError(codeValidation, "", "introspection is disabled")
}

func errNotServed(operation string) error {
	return errors.WrapFatal(errors.ErrMissingConfig, "Resolver", operation, "no backend configured")
}

func invalidArgument(field, arg string, format string, args ...any) error {
	return errors.Mark(errors.ErrorInvalid,
		fmt.Errorf("argument %q: %s: %w", arg, fmt.Sprintf(format, args...), errors.ErrInvalidQuery), "ExecutableSchema", field)
}
