package model

// AccessToken is an opaque bearer credential owned by exactly one user.
// A user holds at most one live token; renewal replaces the value and
// expiry in place. Expires is an absolute unix-seconds instant, always
// issue time plus the configured TTL.
type AccessToken struct {
	ID      int64  `json:"id" db:"id"`
	UserID  int64  `json:"user_id" db:"user_id"`
	Token   string `json:"-" db:"token"` // base64 of 128 random bytes
	Expires int64  `json:"expires" db:"expires"`
}

// ExpiredAt reports whether the token is expired as of the given
// unix-seconds instant.
func (t *AccessToken) ExpiredAt(now int64) bool {
	return now >= t.Expires
}
