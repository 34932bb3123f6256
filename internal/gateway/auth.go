package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/edupay/internal/model"
)

// Credentials are posted to /auth/login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

// Registration is posted to /auth/register.
type Registration struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin trustee user"`
}

// LoginResponse carries the bearer token for subsequent calls.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

// RegisterResponse is the backend's acknowledgement of a new account.
type RegisterResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Signature is the signed payload the backend produces for a collect request.
type Signature struct {
	Sign string `json:"sign"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response did not include an access token")
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, reg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GenerateSign asks the backend to sign a collect request for a school.
func (c *Client) GenerateSign(ctx context.Context, schoolID, collectRequestID string) (*Signature, error) {
	body := map[string]string{
		"school_id":          schoolID,
		"collect_request_id": collectRequestID,
	}
	var sig Signature
	if err := c.do(ctx, http.MethodPost, "/auth/generate-sign", nil, body, &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}
