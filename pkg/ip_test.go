package pkg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUserIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
		wantErr    bool
	}{
		{
			name:       "remote addr only",
			remoteAddr: "93.184.216.34:51234",
			expected:   "93.184.216.34",
		},
		{
			name:       "x-real-ip wins",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-Ip": "203.0.113.7"},
			expected:   "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.2"},
			expected:   "198.51.100.4",
		},
		{
			name:       "garbage addr",
			remoteAddr: "not-an-ip",
			wantErr:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", "/", nil)
			require.NoError(t, err)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			ip, err := ReadUserIP(req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ip)
		})
	}
}
