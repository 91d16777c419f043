package domain

// Session is the authenticated identity and credential material for the
// current user. The in-memory copy is owned by the session manager; the
// durable copy is owned by the token store. The serialized field names are
// fixed for compatibility with existing stored sessions.
type Session struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	User         *UserProfile `json:"user"`
}

// Valid reports whether the record can be trusted as an authenticated
// session. A token without a user (or the reverse) is partial state and must
// be treated as absent, never repaired.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil
}
