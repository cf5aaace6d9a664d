package restapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/99minutos/storefront/internal/core/domain"
)

// AuthAPI maps the accounts endpoints.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*domain.CredentialPair, *domain.Identity, error) {
	var resp struct {
		Access  string           `json:"access"`
		Refresh string           `json:"refresh"`
		User    *domain.Identity `json:"user"`
	}
	err := a.c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "accounts/login/",
		Body:     map[string]string{"email": email, "password": password},
		SkipAuth: true,
	}, &resp)
	if err != nil {
		switch domain.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return nil, nil, domain.InvalidCredentials(err)
		}
		return nil, nil, err
	}
	return &domain.CredentialPair{Access: resp.Access, Refresh: resp.Refresh}, resp.User, nil
}

func (a *AuthAPI) Register(ctx context.Context, in domain.RegisterInput) (*domain.CredentialPair, *domain.Identity, error) {
	var resp struct {
		User   *domain.Identity      `json:"user"`
		Tokens domain.CredentialPair `json:"tokens"`
	}
	err := a.c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "accounts/register/",
		Body:     in,
		SkipAuth: true,
	}, &resp)
	if err != nil {
		return nil, nil, asValidation(err)
	}
	return &resp.Tokens, resp.User, nil
}

func (a *AuthAPI) Logout(ctx context.Context, refresh string) error {
	return a.c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "accounts/logout/",
		Body:   map[string]string{"refresh": refresh},
	}, nil)
}

func (a *AuthAPI) Profile(ctx context.Context) (*domain.Identity, error) {
	var id domain.Identity
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "accounts/profile/"}, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// UpdateProfile patches the editable fields. The backend answers with the
// updated fields only, so callers re-fetch the profile afterwards.
func (a *AuthAPI) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) error {
	err := a.c.Do(ctx, Request{Method: http.MethodPatch, Path: "accounts/profile/", Body: in}, nil)
	return asValidation(err)
}

func (a *AuthAPI) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	err := a.c.Do(ctx, Request{Method: http.MethodPut, Path: "accounts/change-password/", Body: in}, nil)
	return asValidation(err)
}

// asValidation presents a 400 rejection of a form as a validation error.
// Outages and transport failures pass through.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	var re *domain.RequestError
	if errors.As(err, &re) && re.Status == http.StatusBadRequest {
		return &domain.ValidationError{RequestError: re}
	}
	return err
}
