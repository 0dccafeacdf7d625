package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/vizconf/internal/types"
)

// Auth errors are mapped by the auth interceptor.

// toStatus maps engine and request errors to gRPC status errors.
func toStatus(err error) error {
	return status.Error(codeFor(err), err.Error())
}

// storageStatus maps repository errors. Anything that is not a rejected
// document is a storage outage.
func storageStatus(err error) error {
	code := codeFor(err)
	if code == codes.Internal {
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, types.ErrArgumentRequired),
		errors.Is(err, types.ErrArgumentInvalid),
		errors.Is(err, types.ErrOperationInvalid),
		errors.Is(err, types.ErrDocumentTooLarge):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}
