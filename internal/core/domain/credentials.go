package domain

// CredentialPair is the bearer credential set of one session. Access is
// short-lived and sent on every authenticated call; Refresh is exchanged for a
// new Access when the backend rejects the current one.
type CredentialPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether neither credential is present.
func (p *CredentialPair) IsZero() bool {
	return p == nil || (p.Access == "" && p.Refresh == "")
}

// HasRefresh reports whether the pair can be used to obtain a new access credential.
func (p *CredentialPair) HasRefresh() bool {
	return p != nil && p.Refresh != ""
}
