package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TrustedProxies lists the reverse proxies whose forwarding headers are believed.
// The zero value trusts nobody.
type TrustedProxies struct {
	nets []*net.IPNet
}

// ParseTrustedProxies reads a comma separated list of IPs or CIDR ranges
func ParseTrustedProxies(list string) (*TrustedProxies, error) {
	p := &TrustedProxies{}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			entry = fmt.Sprintf("%s/%d", entry, bits)
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		p.nets = append(p.nets, ipNet)
	}
	return p, nil
}

// Len is the number of trusted ranges
func (p *TrustedProxies) Len() int {
	if p == nil {
		return 0
	}
	return len(p.nets)
}

func (p *TrustedProxies) trusts(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, ipNet := range p.nets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller's address. Forwarding headers are read only when
// the direct peer is trusted, and X-Forwarded-For is walked right to left until
// the first hop that is not a trusted proxy.
func (p *TrustedProxies) ClientIP(r *http.Request) string {
	peer := GetClientIP(r)
	if !p.trusts(peer) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if i == 0 || !p.trusts(hop) {
				return hop
			}
		}
		return peer
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return peer
}

// RealIP rewrites RemoteAddr to the resolved client address, so handlers further
// in only ever look at RemoteAddr.
func (p *TrustedProxies) RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := p.ClientIP(r); ip != GetClientIP(r) {
			r = r.WithContext(r.Context())
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		next.ServeHTTP(w, r)
	})
}
