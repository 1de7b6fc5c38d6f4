package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	u, err := s.auth.Register(ctx, pb.String(req, pb.FieldEmail), pb.String(req, pb.FieldPassword))
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return pb.WithUser(u), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	sess, err := s.auth.Login(ctx, pb.String(req, pb.FieldEmail), pb.String(req, pb.FieldPassword))
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return pb.SessionMessage(sess), nil
}

func (s *GRPCServer) Verify(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return pb.WithUser(u), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.auth.Logout(ctx, accessToken(ctx)); err != nil {
		return nil, s.statusError(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) SendEmailVerification(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	ev, err := s.auth.SendEmailVerification(ctx, u.ID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	// without a sender the caller is the only delivery channel
	return pb.VerificationMessage(ev, !s.auth.HasEmailSender()), nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	u, err := s.auth.VerifyEmail(ctx, pb.String(req, pb.FieldToken))
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	s.logger.Info(ctx, "Email verified", "user_id", u.ID)
	return pb.WithUser(u), nil
}

func (s *GRPCServer) ResendEmailVerification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	ev, err := s.auth.ResendEmailVerification(ctx, pb.String(req, pb.FieldEmail))
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return pb.VerificationMessage(ev, !s.auth.HasEmailSender()), nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return pb.NewMessage(map[string]string{pb.FieldStatus: "OK"}), nil
}
