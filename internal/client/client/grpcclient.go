package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	conn    *grpc.ClientConn
	client  *pb.AuthServiceClient
	timeout time.Duration

	mu          sync.Mutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// New dials endpoint lazily; the first call establishes the connection.
func New(endpoint string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) call(ctx context.Context, method string, in map[string]string) (*structpb.Struct, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var msg *structpb.Struct
	if in != nil {
		msg = pb.NewMessage(in)
	}
	resp, err := s.client.Call(ctx, method, msg)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.call(ctx, pb.MethodPing, nil)
	if err != nil {
		return err
	}
	if pb.String(resp, pb.FieldStatus) != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.call(ctx, pb.MethodRegister, map[string]string{pb.FieldEmail: email, pb.FieldPassword: password})
	if err != nil {
		return nil, err
	}
	return pb.UserFrom(resp)
}

// Login opens a session and keeps its token for later calls.
func (s *GRPCClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := s.call(ctx, pb.MethodLogin, map[string]string{pb.FieldEmail: email, pb.FieldPassword: password})
	if err != nil {
		return nil, err
	}
	sess, err := pb.SessionFrom(resp)
	if err != nil {
		return nil, err
	}
	s.SetAccessToken(sess.Token)
	return sess, nil
}

// WhoAmI returns the user owning the current session.
func (s *GRPCClient) WhoAmI(ctx context.Context) (*models.User, error) {
	if s.AccessToken() == "" {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.call(ctx, pb.MethodVerify, nil)
	if err != nil {
		return nil, err
	}
	return pb.UserFrom(resp)
}

// Logout revokes the current session and forgets its token.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if s.AccessToken() == "" {
		return nil
	}
	if _, err := s.call(ctx, pb.MethodLogout, nil); err != nil {
		return err
	}
	s.SetAccessToken("")
	return nil
}

// SendEmailVerification issues a token for the logged-in user. The token is
// set only when the server has no mail sender.
func (s *GRPCClient) SendEmailVerification(ctx context.Context) (*models.EmailVerification, error) {
	if s.AccessToken() == "" {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.call(ctx, pb.MethodSendEmailVerification, nil)
	if err != nil {
		return nil, err
	}
	return pb.VerificationFrom(resp)
}

func (s *GRPCClient) ResendEmailVerification(ctx context.Context, email string) (*models.EmailVerification, error) {
	resp, err := s.call(ctx, pb.MethodResendEmailVerification, map[string]string{pb.FieldEmail: email})
	if err != nil {
		return nil, err
	}
	return pb.VerificationFrom(resp)
}

func (s *GRPCClient) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	resp, err := s.call(ctx, pb.MethodVerifyEmail, map[string]string{pb.FieldToken: token})
	if err != nil {
		return nil, err
	}
	return pb.UserFrom(resp)
}
