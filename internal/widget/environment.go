package widget

import (
	"net"
	"strings"
)

var testEnvironmentSuffixes = []string{".dev", ".stage"}

// IsTestEnvironment reports whether host (optionally with a port) belongs to a
// development or staging install.
func IsTestEnvironment(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	for _, suffix := range testEnvironmentSuffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// Scheme is http for test environments and https everywhere else.
func Scheme(host string) string {
	if IsTestEnvironment(host) {
		return "http"
	}
	return "https"
}

// LoaderURL is where the widget script is fetched from.
func LoaderURL(scheme, apiDomain string) string {
	return scheme + "://widget." + apiDomain
}
