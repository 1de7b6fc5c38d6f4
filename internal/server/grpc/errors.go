package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeByErr = []struct {
	err  error
	code codes.Code
}{
	{common.ErrValidation, codes.InvalidArgument},
	{common.ErrWeakPassword, codes.InvalidArgument},
	{common.ErrInvalidToken, codes.InvalidArgument},
	{common.ErrUserAlreadyExists, codes.AlreadyExists},
	{common.ErrUserNotFound, codes.NotFound},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrSessionNotFound, codes.Unauthenticated},
	{common.ErrSessionExpired, codes.Unauthenticated},
	{common.ErrEmailNotVerified, codes.PermissionDenied},
	{common.ErrEmailAlreadyVerified, codes.FailedPrecondition},
	{common.ErrTokenAlreadyUsed, codes.FailedPrecondition},
	{common.ErrTokenExpired, codes.FailedPrecondition},
	{common.ErrEmailSendFailed, codes.Unavailable},
}

// statusError converts err into a gRPC status whose message is the error
// kind label. Storage and unknown failures are logged and reported as
// Internal without detail.
func (s *GRPCServer) statusError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	kind := common.Kind(err)
	for _, c := range codeByErr {
		if errors.Is(err, c.err) {
			if c.code == codes.InvalidArgument {
				// field details are safe to return
				return status.Error(c.code, kind+": "+err.Error())
			}
			return status.Error(c.code, kind)
		}
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, kind)
}
