package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestProxyTrust_ClientIP(t *testing.T) {
	trust, err := NewProxyTrust([]string{"10.0.0.0/8", "127.0.0.1"})
	if err != nil {
		t.Fatalf("NewProxyTrust failed: %v", err)
	}

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct client", "203.0.113.9:5000", "", "", "203.0.113.9"},
		{"untrusted peer cannot spoof", "203.0.113.9:5000", "198.51.100.1", "198.51.100.2", "203.0.113.9"},
		{"trusted proxy forwards", "10.1.2.3:443", "198.51.100.1", "", "198.51.100.1"},
		{"spoofed left hop ignored", "10.1.2.3:443", "1.1.1.1, 198.51.100.1, 10.9.9.9", "", "198.51.100.1"},
		{"only trusted hops", "127.0.0.1:80", "10.0.0.5, 10.0.0.6", "", "10.0.0.5"},
		{"real ip from trusted proxy", "127.0.0.1:80", "", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy without headers", "10.1.2.3:443", "", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := trust.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProxyTrust(t *testing.T) {
	if _, err := NewProxyTrust([]string{"not-an-ip"}); err == nil {
		t.Error("expected error for a bad address")
	}
	if _, err := NewProxyTrust([]string{"10.0.0.0/33"}); err == nil {
		t.Error("expected error for a bad CIDR")
	}

	none, err := NewProxyTrust(nil)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := none.ClientIP(req); got != "127.0.0.1" {
		t.Errorf("ClientIP with no trusted proxies = %q, want the peer", got)
	}
}
