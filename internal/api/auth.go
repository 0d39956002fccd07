package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var data loginData
	err := c.do(ctx, http.MethodPost, "/v1/user/login", nil, loginRequest{Email: email, Password: password}, &data)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return data.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/v1/user/register", nil, registerRequest{Name: name, Email: email, Password: password}, &user)
	if err != nil {
		return domain.User{}, fmt.Errorf("register failed: %w", err)
	}
	return user, nil
}

// Me fetches the profile for the current bearer token.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/v1/user/me", nil, nil, &user); err != nil {
		return domain.User{}, fmt.Errorf("fetch user failed: %w", err)
	}
	return user, nil
}
