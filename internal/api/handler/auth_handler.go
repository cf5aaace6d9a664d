package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"omitempty,oneof=customer vendor"`
}

type profileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

type passwordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

type authResponse struct {
	User          *domain.Identity `json:"user"`
	Authenticated bool             `json:"is_authenticated"`
}

func stateResponse(s domain.AuthState) authResponse {
	return authResponse{User: s.Identity, Authenticated: s.IsAuthenticated()}
}

// Login signs the visitor in and merges their guest cart.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	if _, err := s.Identity.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse(s.Identity.State()))
}

// Register creates an account, signs the visitor in and merges their guest cart.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	_, err = s.Identity.Register(c.Request().Context(), domain.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stateResponse(s.Identity.State()))
}

// Logout signs the visitor out. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	if err := s.Identity.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse(s.Identity.State()))
}

// Me verifies the stored session against the backend and returns the
// resulting state. A rejected session answers as anonymous.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.Identity.Verify(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse(s.Identity.State()))
}

// UpdateProfile changes the visitor's name or phone.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Fields to change"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/auth/profile [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	_, err = s.Identity.UpdateProfile(c.Request().Context(), domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse(s.Identity.State()))
}

// ChangePassword changes the visitor's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Param        body  body  passwordRequest  true  "Old and new password"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	err = s.Identity.ChangePassword(c.Request().Context(), domain.PasswordChange{
		OldPassword:  req.OldPassword,
		NewPassword:  req.NewPassword,
		NewPassword2: req.NewPassword2,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
