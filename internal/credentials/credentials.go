package credentials

import (
	"fmt"
	"net/url"
)

// Credentials is a resolved username/password pair. The zero value has
// neither.
type Credentials struct {
	username    string
	password    string
	hasUsername bool
	hasPassword bool
}

// New returns credentials with both a username and a password.
func New(username, password string) *Credentials {
	return &Credentials{
		username:    username,
		password:    password,
		hasUsername: true,
		hasPassword: true,
	}
}

// FromURL returns the credentials embedded in the URL's userinfo, or nil
// when the URL carries none.
func FromURL(u *url.URL) *Credentials {
	if u == nil || u.User == nil {
		return nil
	}
	c := &Credentials{}
	if name := u.User.Username(); name != "" {
		c.username, c.hasUsername = name, true
	}
	if pass, ok := u.User.Password(); ok {
		c.password, c.hasPassword = pass, true
	}
	if c.IsEmpty() {
		return nil
	}
	return c
}

// StripURL returns a copy of u without userinfo.
func StripURL(u *url.URL) *url.URL {
	stripped := *u
	stripped.User = nil
	return &stripped
}

// Username returns the username and whether one is set.
func (c *Credentials) Username() (string, bool) {
	return c.username, c.hasUsername
}

// Password returns the password and whether one is set.
func (c *Credentials) Password() (string, bool) {
	return c.password, c.hasPassword
}

// IsEmpty reports whether neither a username nor a password is set.
func (c *Credentials) IsEmpty() bool {
	return !c.hasUsername && !c.hasPassword
}

// String never includes the password.
func (c *Credentials) String() string {
	if c == nil {
		return "<none>"
	}
	password := "<unset>"
	if c.hasPassword {
		password = "****"
	}
	return fmt.Sprintf("Credentials{username: %q, password: %s}", c.username, password)
}
