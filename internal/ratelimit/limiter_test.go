package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "remote addr only",
			remote: "203.0.113.7:54321",
			want:   "203.0.113.7",
		},
		{
			name:    "x-forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.4"},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.4",
		},
		{
			name:    "x-forwarded-for chain takes first",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.2, 10.0.0.3"},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.4",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": " 198.51.100.9 "},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.9",
		},
		{
			name: "forwarded-for beats real-ip",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.4",
				"X-Real-IP":       "198.51.100.9",
			},
			remote: "10.0.0.1:1234",
			want:   "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "ratelimit:ip:signup:203.0.113.7", ipKey("203.0.113.7", "signup"))
	assert.Equal(t, "ratelimit:email_cooldown:a@b.cz", cooldownKey("a@b.cz"))
}
