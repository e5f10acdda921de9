package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/finanza/finanza-api/internal/auth"
	"github.com/finanza/finanza-api/internal/middleware"
	"github.com/finanza/finanza-api/internal/models"
)

// resetRequestedMessage is returned whether or not the account exists.
const resetRequestedMessage = "If the email is registered, a reset code has been sent."

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordResponse has the same shape for known and unknown emails.
// DebugCode is only filled when debug reset codes are enabled and the
// account exists.
type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	DebugCode string `json:"debug_code,omitempty"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MeRequest struct{}

type MeResponse struct {
	UserID string `json:"user_id"`
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	tokens        *auth.TokenService
	reset         *auth.ResetFlow
	logger        *slog.Logger
	debugCodes    bool
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithDebugResetCodes echoes issued reset codes in ForgotPassword responses.
// Only for development, where no mail channel exists.
func WithDebugResetCodes(enabled bool) AuthOption {
	return func(s *AuthService) { s.debugCodes = enabled }
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, tokens *auth.TokenService, reset *auth.ResetFlow, logger *slog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		authenticator: authenticator,
		tokens:        tokens,
		reset:         reset,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[TokenResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return connect.NewResponse(&TokenResponse{Token: token}), nil
}

// Login authenticates a user and returns a token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[TokenResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return connect.NewResponse(&TokenResponse{Token: token}), nil
}

// ForgotPassword issues a reset code. The response does not reveal whether
// the email belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, req *connect.Request[ForgotPasswordRequest]) (*connect.Response[ForgotPasswordResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	code, err := s.reset.RequestReset(ctx, req.Msg.Email)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	resp := &ForgotPasswordResponse{Message: resetRequestedMessage}
	if s.debugCodes {
		resp.DebugCode = code
	}
	return connect.NewResponse(resp), nil
}

// ResetPassword exchanges a live reset code for a new password.
func (s *AuthService) ResetPassword(ctx context.Context, req *connect.Request[ResetPasswordRequest]) (*connect.Response[MessageResponse], error) {
	req.Msg.Email = models.NormalizeEmail(req.Msg.Email)
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	if err := s.reset.ConfirmReset(ctx, req.Msg.Email, req.Msg.Code, req.Msg.NewPassword); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	s.logger.InfoContext(ctx, "Password reset", "email", req.Msg.Email)
	return connect.NewResponse(&MessageResponse{Message: "Password updated successfully"}), nil
}

// Me returns the authenticated user's ID.
func (s *AuthService) Me(ctx context.Context, req *connect.Request[MeRequest]) (*connect.Response[MeResponse], error) {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return nil, toConnectError(ctx, s.logger, auth.ErrMissingToken)
	}
	return connect.NewResponse(&MeResponse{UserID: userID}), nil
}
