package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/internal/auth"
	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage"
)

// toConnectError maps domain errors onto Connect codes. Errors that already
// carry a code are returned unchanged.
func toConnectError(err error) error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, models.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.CodeUnauthenticated
	case errors.Is(err, models.ErrPermissionDenied):
		return connect.CodePermissionDenied
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, makemode.ErrSessionNotFound):
		return connect.CodeNotFound
	case errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, makemode.ErrStepOutOfRange):
		return connect.CodeInvalidArgument
	case errors.Is(err, models.ErrInvalidForkTarget),
		errors.Is(err, makemode.ErrNoTimer),
		errors.Is(err, makemode.ErrDecisionPending),
		errors.Is(err, makemode.ErrNoDecision),
		errors.Is(err, makemode.ErrNoSuggestion),
		errors.Is(err, makemode.ErrSessionClosed):
		return connect.CodeFailedPrecondition
	case errors.Is(err, models.ErrStoreUnavailable):
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}
