package domain

import "strings"

// Role is the account type assigned by the backend. It never changes during a session.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Identity models the signed-in account as reported by the profile endpoint.
type Identity struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"full_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"role"`
}

// Name returns the best human-readable label for the account.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if full := strings.TrimSpace(i.FirstName + " " + i.LastName); full != "" {
		return full
	}
	return i.Email
}

// AuthState is a snapshot of the identity state machine: Anonymous when
// Identity is nil, Authenticated otherwise.
type AuthState struct {
	Identity *Identity `json:"user,omitempty"`
}

// Anonymous returns the unauthenticated state.
func Anonymous() AuthState { return AuthState{} }

// Authenticated returns the state for id.
func Authenticated(id *Identity) AuthState { return AuthState{Identity: id} }

// IsAuthenticated reports whether a user is signed in.
func (s AuthState) IsAuthenticated() bool { return s.Identity != nil }

// HasRole reports whether the signed-in user holds one of roles.
func (s AuthState) HasRole(roles ...Role) bool {
	if s.Identity == nil {
		return false
	}
	for _, r := range roles {
		if s.Identity.Role == r {
			return true
		}
	}
	return false
}

// RegisterInput carries the account fields accepted by the registration endpoint.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// PasswordChange carries a password change request.
type PasswordChange struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}
