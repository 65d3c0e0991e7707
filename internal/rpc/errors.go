package rpc

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/service"
)

// toConnectError maps service errors to Connect codes.
func toConnectError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountSuspended):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, service.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
