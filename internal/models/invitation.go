package models

// Invitation grants membership of a group to whoever presents its token.
//
// An invitation is multi-use: accepting it does not consume it. It stays
// usable by other users until it expires or is revoked (deleted).
type Invitation struct {
	ID      string
	GroupID string

	// Token is 32 random bytes, URL-safe base64 without padding. Unique.
	Token string

	// ExpiresAt is the Unix timestamp after which the token is inert.
	ExpiresAt int64

	CreatedAt int64
	UpdatedAt int64
}

// Active reports whether the invitation can still be accepted at now (Unix seconds).
func (i *Invitation) Active(now int64) bool {
	return i.ExpiresAt >= now
}
