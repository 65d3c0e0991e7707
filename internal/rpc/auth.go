package rpc

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/service"
)

// AuthServer implements the AuthService RPC interface.
type AuthServer struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthServer creates a new AuthServer.
func NewAuthServer(authSvc *service.AuthService, logger *slog.Logger) *AuthServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthServer{auth: authSvc, logger: logger}
}

// Login authenticates a user and returns its session key.
func (s *AuthServer) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	token, err := s.auth.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoginResponse{Token: token}), nil
}
