package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "10.0.0.5:4321", want: "10.0.0.5"},
		{name: "headers ignored without trust", remote: "10.0.0.5:4321", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "10.0.0.5"},
		{name: "cloudflare first", remote: "127.0.0.1:1", headers: map[string]string{"CF-Connecting-IP": "5.6.7.8", "X-Forwarded-For": "1.2.3.4"}, trustProxy: true, want: "5.6.7.8"},
		{name: "left-most forwarded", remote: "127.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 9.9.9.9"}, trustProxy: true, want: "1.2.3.4"},
		{name: "real ip", remote: "127.0.0.1:1", headers: map[string]string{"X-Real-IP": "4.4.4.4"}, trustProxy: true, want: "4.4.4.4"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m, invalid := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.7 ", "", "not-an-ip"})
	if len(invalid) != 1 || invalid[0] != "not-an-ip" {
		t.Errorf("invalid = %v, want [not-an-ip]", invalid)
	}
	if m.IsEmpty() {
		t.Fatal("IsEmpty() = true")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "10.20.30.40", want: true},
		{ip: "192.168.1.7", want: true},
		{ip: "::ffff:192.168.1.7", want: true},
		{ip: "192.168.1.8", want: false},
		{ip: "garbage", want: false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	empty, _ := NewIPMatcher(nil)
	if !empty.IsEmpty() {
		t.Error("empty matcher not empty")
	}
}
