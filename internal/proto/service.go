// Package proto declares the gophauth.v1.AuthService wire contract. Messages
// are google.protobuf.Struct values, so no generated code is needed; field
// names are the constants below.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophauth.v1.AuthService"

const (
	MethodRegister                = "Register"
	MethodLogin                   = "Login"
	MethodVerify                  = "Verify"
	MethodLogout                  = "Logout"
	MethodSendEmailVerification   = "SendEmailVerification"
	MethodVerifyEmail             = "VerifyEmail"
	MethodResendEmailVerification = "ResendEmailVerification"
	MethodPing                    = "Ping"
)

// Message field names.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldToken           = "token"
	FieldUser            = "user"
	FieldUserID          = "user_id"
	FieldID              = "id"
	FieldEmailVerified   = "email_verified"
	FieldEmailVerifiedAt = "email_verified_at"
	FieldCreatedAt       = "created_at"
	FieldExpiresAt       = "expires_at"
	FieldStatus          = "status"
)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthServiceServer is implemented by the daemon.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendEmailVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResendEmailVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func handler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		handler(MethodRegister, AuthServiceServer.Register),
		handler(MethodLogin, AuthServiceServer.Login),
		handler(MethodVerify, AuthServiceServer.Verify),
		handler(MethodLogout, AuthServiceServer.Logout),
		handler(MethodSendEmailVerification, AuthServiceServer.SendEmailVerification),
		handler(MethodVerifyEmail, AuthServiceServer.VerifyEmail),
		handler(MethodResendEmailVerification, AuthServiceServer.ResendEmailVerification),
		handler(MethodPing, AuthServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient invokes the service over conn.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Call invokes method with in and returns the response message.
func (c *AuthServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
