package model

import (
	"encoding/json"
	"strings"
	"time"
)

// User field names, as used in permission grants
const (
	UserFieldName              = "name"
	UserFieldPassword          = "password"
	UserFieldEmail             = "email"
	UserFieldAdmin             = "admin"
	UserFieldFactorioLinkToken = "factorioLinkToken"
	UserFieldDescription       = "description"
)

// User is a web account able to log in and hold sessions
type User struct {
	Name              string    `json:"name"`
	Password          string    `json:"password"` // bcrypt hash
	Email             string    `json:"email,omitempty"`
	Admin             Flag      `json:"admin"`
	FactorioLinkToken string    `json:"factorioLinkToken,omitempty"`
	Description       string    `json:"description,omitempty"`
	Sessions          []Session `json:"sessions"`
}

// Clone returns a deep copy
func (u *User) Clone() *User {
	c := *u
	c.Sessions = make([]Session, len(u.Sessions))
	copy(c.Sessions, u.Sessions)
	return &c
}

// Session is a time-bounded login token.
// ExpiryDate is stored in unix milliseconds.
type Session struct {
	Token      string `json:"token"`
	ExpiryDate int64  `json:"expiryDate"`
}

// NewSession creates a session expiring at the given time
func NewSession(token string, expires time.Time) Session {
	return Session{Token: token, ExpiryDate: expires.UnixMilli()}
}

// Expires returns the expiry as a time.Time
func (s Session) Expires() time.Time {
	return time.UnixMilli(s.ExpiryDate)
}

// ValidAt reports whether the session is still usable at now
func (s Session) ValidAt(now time.Time) bool {
	return now.Before(s.Expires())
}

// ExpiredAt reports whether the session must be pruned at now
func (s Session) ExpiredAt(now time.Time) bool {
	return now.After(s.Expires())
}

// Flag is a boolean that also accepts the legacy string encoding "true"
// when decoded. It is always written back as a JSON boolean, so a single
// load/save cycle migrates old databases.
type Flag bool

// UnmarshalJSON accepts true/false and "true"/"false"
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Flag(strings.EqualFold(strings.TrimSpace(s), "true"))
		return nil
	}

	// null and anything else reads as false
	*f = false
	return nil
}
