package credentials

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	errMissingHost      = errors.New("url has no host")
	errEmbeddedPassword = errors.New("url carries an embedded password")
	errEmptyUsername    = errors.New("username is empty")
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// checkRequest enforces the preconditions shared by Fetch, Set and Unset.
func checkRequest(u *url.URL, username string) error {
	if u == nil || u.Hostname() == "" {
		return errMissingHost
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			return errEmbeddedPassword
		}
	}
	if username == "" {
		return errEmptyUsername
	}
	return nil
}

// serviceName renders the URL-scoped key: scheme and host lowercased, the
// scheme's default port dropped, an empty path written as "/", and no
// userinfo or fragment.
func serviceName(u *url.URL) string {
	n := *u
	n.User = nil
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = hostKey(u)
	if n.Path == "" && n.Opaque == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	n.Fragment = ""
	n.RawFragment = ""
	return n.String()
}

// hostKey returns "host" or "host:port" when the URL names a port other
// than its scheme's default.
func hostKey(u *url.URL) string {
	if port := explicitPort(u); port != "" {
		return net.JoinHostPort(strings.ToLower(u.Hostname()), port)
	}
	return hostOnly(u)
}

// hostOnly returns the host without any port. IPv6 literals keep their
// brackets.
func hostOnly(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

func explicitPort(u *url.URL) string {
	port := u.Port()
	if port == "" || defaultPorts[strings.ToLower(u.Scheme)] == port {
		return ""
	}
	return port
}
