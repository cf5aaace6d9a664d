package domain

// TransitionCause names what moved the identity state machine.
type TransitionCause string

const (
	CauseLogin        TransitionCause = "login"
	CauseRegister     TransitionCause = "register"
	CauseLogout       TransitionCause = "logout"
	CauseRestore      TransitionCause = "restore"
	CauseVerifyFailed TransitionCause = "verify_failed"
	CauseExpired      TransitionCause = "session_expired"
)

// Transition records one identity state change.
type Transition struct {
	From  AuthState
	To    AuthState
	Cause TransitionCause
}

// SignedIn reports an Anonymous to Authenticated change.
func (t Transition) SignedIn() bool {
	return !t.From.IsAuthenticated() && t.To.IsAuthenticated()
}

// SignedOut reports an Authenticated to Anonymous change.
func (t Transition) SignedOut() bool {
	return t.From.IsAuthenticated() && !t.To.IsAuthenticated()
}
