package client

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/api/dto"
	"github.com/spec-kit/freeler-client/internal/domain"
)

// AuthClient implements session.Authenticator over HTTP.
type AuthClient struct {
	http httpClient
}

// NewAuthClient builds a client for the authentication service at baseURL.
func NewAuthClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AuthClient {
	return &AuthClient{http: newHTTPClient(baseURL, timeout, logger)}
}

// Login handles POST /auth/login.
func (c *AuthClient) Login(ctx context.Context, creds domain.Credentials, sessionType domain.SessionType) (*domain.AuthResult, error) {
	var resp dto.SessionEnvelope
	err := c.http.do(ctx, fiber.MethodPost, "/auth/login", "", dto.LoginRequest{
		Email:       creds.Email,
		Password:    creds.Password,
		SessionType: sessionType,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return checked(resp)
}

// Register handles POST /auth/register.
func (c *AuthClient) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var resp dto.SessionEnvelope
	err := c.http.do(ctx, fiber.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Name:       reg.Name,
		Email:      reg.Email,
		Password:   reg.Password,
		NationalID: reg.NationalID,
		Phone:      reg.Phone,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return checked(resp)
}

// Logout handles POST /auth/logout.
func (c *AuthClient) Logout(ctx context.Context, token string) error {
	return c.http.do(ctx, fiber.MethodPost, "/auth/logout", token, nil, nil)
}

func checked(resp dto.SessionEnvelope) (*domain.AuthResult, error) {
	if resp.Data.Auth.Token == "" {
		return nil, errors.New("auth response carried no token")
	}
	return resp.Data.Result(), nil
}
