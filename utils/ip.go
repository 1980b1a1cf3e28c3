package utils

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseTrustedProxies accepts IPs and CIDR ranges. Blank entries are skipped.
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 8 * net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// RequestHost is the host the page was requested on. X-Forwarded-Host is only
// honoured when the direct peer is a trusted proxy; any client can send it.
func RequestHost(r *http.Request, trusted []*net.IPNet) string {
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" && fromTrustedProxy(r, trusted) {
		first, _, _ := strings.Cut(fwd, ",")
		if host := strings.TrimSpace(first); host != "" {
			return host
		}
	}
	return r.Host
}

func fromTrustedProxy(r *http.Request, trusted []*net.IPNet) bool {
	if len(trusted) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
