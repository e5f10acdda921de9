package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/finanza/finanza-api/internal/advice"
	"github.com/finanza/finanza-api/internal/auth"
	"github.com/finanza/finanza-api/internal/storage"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags of msg and reports the first failure.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalidField(fe.Field(), "is required")
	case "email":
		return invalidField(fe.Field(), "must be a valid email address")
	case "oneof":
		return invalidField(fe.Field(), "must be one of: "+fe.Param())
	case "max":
		return invalidField(fe.Field(), "must be at most "+fe.Param()+" characters")
	default:
		return invalidField(fe.Field(), fmt.Sprintf("failed %q validation", fe.Tag()))
	}
}

// toConnectError translates a domain error into the Connect error returned to
// the caller. Unrecognized errors are logged and reported as internal without
// their message.
func toConnectError(ctx context.Context, logger *slog.Logger, err error) error {
	var connectErr *connect.Error
	var validationErr *ValidationError

	switch {
	case errors.As(err, &connectErr):
		return connectErr

	case errors.As(err, &validationErr):
		return connect.NewError(connect.CodeInvalidArgument, validationErr)

	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, storage.ErrDuplicateEmail),
		errors.Is(err, storage.ErrDuplicateCategory):
		return connect.NewError(connect.CodeAlreadyExists, err)

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)

	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, storage.ErrNotFound)

	case errors.Is(err, auth.ErrInvalidCode):
		return connect.NewError(connect.CodeInvalidArgument, errors.New("invalid_code"))

	case errors.Is(err, auth.ErrCodeExpired):
		return connect.NewError(connect.CodeInvalidArgument, errors.New("code_expired"))

	case errors.Is(err, advice.ErrUnavailable):
		return connect.NewError(connect.CodeUnavailable, errors.New("AI unavailable"))

	default:
		logger.ErrorContext(ctx, "Unhandled error", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
