package entity

import "time"

// RefreshToken is a persisted refresh credential. It is valid only while a
// row exists and ExpiresAt is in the future; logout deletes every row for
// the user.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
