package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey struct{}

// Middleware resolves the client IP once per request and stashes it in the
// request context for downstream consumers, typically audit extractors.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKey{}, GetIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIPFromContext returns the IP stored by Middleware, or the empty string
// when the request did not pass through it.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// GetIP returns the client's IP address from the HTTP request, checking
// proxy headers before falling back to the connection's remote address:
//  1. X-Forwarded-For (first valid IP in the chain)
//  2. X-Real-IP (reverse proxies like nginx)
//  3. CF-Connecting-IP (Cloudflare)
//  4. RemoteAddr
func GetIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, ip := range strings.Split(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, assume it is already just an IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string, returning the
// empty string for anything that does not parse.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	return ip.String()
}
