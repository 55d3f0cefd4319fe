package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
)

// SwaggerConfig holds configuration for Swagger endpoint protection
type SwaggerConfig struct {
	Enabled bool
	// AllowedIPs accepts single addresses and CIDR ranges; empty allows all
	AllowedIPs []string
}

// SwaggerProtection hides the API docs when disabled and restricts them to
// an IP allowlist when one is configured. Unparseable entries are ignored.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	prefixes := parseAllowlist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}
		if len(cfg.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), prefixes) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access to API documentation is restricted")
			return
		}
		c.Next()
	}
}

func parseAllowlist(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return out
}

func ipAllowed(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
