package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP keys anonymous callers for rate limiting and request logs. Proxy headers are
// honored only when they carry a parseable address; anything else falls back to gin's view.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		if ip := parseIP(host); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

func parseIP(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}
	return ip.String()
}
