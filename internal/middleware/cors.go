package middleware

import (
	"net/http"
	"strings"

	"github.com/essenza/backend/internal/config"
	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With"
)

// CORS answers preflights and stamps the allow headers. Origins are compared
// after trimming trailing slashes so configuration typos don't break logins.
func CORS(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := normalizeOrigin(c.Request.Header.Get("Origin"))

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Max-Age", "86400")

		if origin != "" && originAllowed(cfg, origin) {
			h.Set("Access-Control-Allow-Origin", origin)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

func originAllowed(cfg *config.Config, origin string) bool {
	for _, allowed := range cfg.AllowedOrigins {
		if origin == normalizeOrigin(allowed) {
			return true
		}
	}
	// Local frontends run on arbitrary ports during development
	return cfg.Env == "development"
}
