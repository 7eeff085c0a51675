package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownOrigin is used when no client address can be determined
const UnknownOrigin = "unknown"

// IPConfig holds the parsed proxy ranges whose forwarding headers are trusted
type IPConfig struct {
	trusted []*net.IPNet
}

// NewIPConfig parses CIDR ranges of trusted proxies. Invalid ranges are skipped.
func NewIPConfig(trustedProxies []string) *IPConfig {
	cfg := &IPConfig{}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			continue
		}
		cfg.trusted = append(cfg.trusted, ipNet)
	}
	return cfg
}

func (c *IPConfig) isTrusted(ip string) bool {
	if c == nil || len(c.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range c.trusted {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the address a request originated from.
// Forwarding headers are honoured only when the direct peer is a trusted proxy.
// X-Forwarded-For is read right to left: proxies append, so the first address
// outside the trusted ranges is the one the last trusted hop actually saw.
// Entries left of it are client-supplied and ignored.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := remoteIP(r)
	if !config.isTrusted(peer) {
		return peer
	}

	if client := forwardedClient(r.Header.Get("X-Forwarded-For"), config); client != "" {
		return client
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return peer
}

// forwardedClient walks an X-Forwarded-For chain from the nearest hop outward
// and returns the first untrusted address, or "" when none is usable.
func forwardedClient(xff string, config *IPConfig) string {
	if xff == "" {
		return ""
	}
	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			// a malformed hop breaks the chain of custody
			return ""
		}
		if !config.isTrusted(hop) {
			return hop
		}
	}
	return ""
}

func remoteIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return UnknownOrigin
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
