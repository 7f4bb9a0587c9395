package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustIPConfig(t *testing.T, cidrs ...string) *pkghttp.IPConfig {
	t.Helper()
	cfg, err := pkghttp.NewIPConfig(cidrs)
	require.NoError(t, err)
	return cfg
}

func TestNewIPConfig_RejectsInvalidRanges(t *testing.T) {
	_, err := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "invalid-cidr-range"})
	assert.Error(t, err)

	_, err = pkghttp.NewIPConfig([]string{"10.0.0.1", " ", "::1/128"})
	assert.NoError(t, err)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		trusted    []string
		want       string
	}{
		{
			name:       "direct connection ignores spoofed headers",
			remoteAddr: "203.0.113.10:54321",
			xff:        "1.2.3.4, 5.6.7.8",
			xRealIP:    "192.168.1.1",
			trusted:    []string{"10.0.0.0/8", "172.16.0.0/12", "127.0.0.1/32"},
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy forwards client",
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42",
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.42",
		},
		{
			name:       "proxy chain skips trusted hops",
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42, 10.0.0.7",
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.42",
		},
		{
			name:       "client-supplied prefix is ignored",
			remoteAddr: "10.0.0.5:54321",
			xff:        "127.0.0.1, 203.0.113.42",
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.42",
		},
		{
			name:       "ipv6 trusted proxy",
			remoteAddr: "[::1]:54321",
			xff:        "2001:db8::1",
			trusted:    []string{"::1/128"},
			want:       "2001:db8::1",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.5:54321",
			xRealIP:    "203.0.113.9",
			trusted:    []string{"10.0.0.5"},
			want:       "203.0.113.9",
		},
		{
			name:       "no trusted proxies strips port",
			remoteAddr: "203.0.113.10:54321",
			xff:        "1.2.3.4",
			want:       "203.0.113.10",
		},
		{
			name:       "garbage header falls back to peer",
			remoteAddr: "10.0.0.5:54321",
			xff:        "not-an-ip",
			trusted:    []string{"10.0.0.0/8"},
			want:       "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			ip := pkghttp.ExtractClientIP(req, mustIPConfig(t, tt.trusted...))

			assert.Equal(t, tt.want, ip)
		})
	}
}

func TestExtractClientIP_NilConfig(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, nil))
}
