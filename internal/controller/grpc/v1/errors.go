package v1

import (
	"errors"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeOf = []struct {
	err  error
	code codes.Code
}{
	{errs.ErrUsernameInvalid, codes.InvalidArgument},
	{errs.ErrSessionInvalid, codes.InvalidArgument},
	{errs.ErrSubmissionInvalid, codes.InvalidArgument},
	{errs.ErrMetadataInvalid, codes.InvalidArgument},
	{errs.ErrChunkInvalid, codes.InvalidArgument},
	{errs.ErrUnexpectedFrame, codes.InvalidArgument},
	{errs.ErrSizeMismatch, codes.InvalidArgument},

	{errs.ErrAccountNotFound, codes.NotFound},
	{errs.ErrSessionNotFound, codes.NotFound},
	{errs.ErrSubmissionNotFound, codes.NotFound},

	{errs.ErrSubmissionNotReady, codes.Unavailable},
	{errs.ErrSubmissionFailed, codes.Unavailable},

	{errs.ErrInvalidTransition, codes.FailedPrecondition},
}

// code maps a use case error to its status code. Unknown errors are Internal.
func code(err error) codes.Code {
	for _, c := range codeOf {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return codes.Internal
}

// toStatus converts err into a status error, logging the ones that are not
// caused by the caller.
func (r *V1) toStatus(err error, method, msg string) error {
	c := code(err)
	if c == codes.Internal {
		r.logger.Error(err, "grpc - v1 - %s", method)

		return status.Error(c, "internal error")
	}

	if msg == "" {
		msg = err.Error()
	}

	return status.Error(c, msg)
}
