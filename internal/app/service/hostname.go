package service

import (
	"net/url"
	"strings"
)

// Hostname extracts the lower-cased host of an absolute URL without the port.
// It reports false for values that do not parse as an absolute URL.
func Hostname(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}
