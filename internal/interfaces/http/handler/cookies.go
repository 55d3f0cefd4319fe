package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
)

func sameSiteMode(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// setCookie writes an HttpOnly cookie; a non-positive maxAge deletes it
func setCookie(c *gin.Context, cfg config.CookieConfig, name, value string, maxAge time.Duration) {
	seconds := int(maxAge / time.Second)
	if maxAge <= 0 {
		seconds = -1
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	c.SetSameSite(sameSiteMode(cfg.SameSite))
	c.SetCookie(name, value, seconds, path, cfg.Domain, cfg.Secure, true)
}
