package api

import (
	"context"
	"net/http"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// POST /auth/login
func (c *Client) Login(ctx context.Context, in model.LoginInput) (*model.AuthResult, error) {
	var res model.AuthResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: in}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// POST /auth/register
func (c *Client) Register(ctx context.Context, in model.RegisterInput) (*model.AuthResult, error) {
	var res model.AuthResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GET /auth/profile
// token が空なら TokenSource のトークンを使う。
func (c *Client) Profile(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/profile", token: token}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
