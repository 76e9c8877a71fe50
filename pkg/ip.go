package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ReadUserIP resolves the client address, preferring the reverse proxy
// headers over the raw remote address.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		ipAddr = r.Header.Get("X-Forwarded-For")
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	// X-Forwarded-For can hold a chain, the first hop is the client
	if i := strings.IndexByte(ipAddr, ','); i >= 0 {
		ipAddr = strings.TrimSpace(ipAddr[:i])
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}

	if net.ParseIP(ipAddr) == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}
