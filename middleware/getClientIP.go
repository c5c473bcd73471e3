package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// ProxyTrust decides whose forwarding headers are believed. A request's
// X-Forwarded-For and X-Real-IP only count when the direct peer is trusted.
type ProxyTrust struct {
	nets []*net.IPNet
}

// NewProxyTrust parses IPs and CIDRs. An empty list trusts no one.
func NewProxyTrust(entries []string) (*ProxyTrust, error) {
	p := &ProxyTrust{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", e)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p.nets = append(p.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		p.nets = append(p.nets, n)
	}
	return p, nil
}

func (p *ProxyTrust) trusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the nearest hop back and returns the
// first address not in the trusted set.
func (p *ProxyTrust) ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !p.trusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !p.trusted(hop) || i == 0 {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

var (
	proxyMu sync.RWMutex
	proxies = &ProxyTrust{}
)

// SetTrustedProxies replaces the process-wide proxy list used by the middleware.
func SetTrustedProxies(entries []string) error {
	p, err := NewProxyTrust(entries)
	if err != nil {
		return err
	}
	proxyMu.Lock()
	proxies = p
	proxyMu.Unlock()
	return nil
}

func getClientIP(c *gin.Context) string {
	proxyMu.RLock()
	p := proxies
	proxyMu.RUnlock()
	return p.ClientIP(c.Request)
}

// ClientIP is the caller's address as seen through trusted proxies.
func ClientIP(c *gin.Context) string {
	return getClientIP(c)
}
