package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityMiddleware provides security-related gin middleware shared by every
// route group.
type SecurityMiddleware struct{}

// NewSecurityMiddleware creates a new security middleware.
func NewSecurityMiddleware() *SecurityMiddleware {
	return &SecurityMiddleware{}
}

// SecurityHeaders adds baseline security headers to every response.
func (m *SecurityMiddleware) SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// EnhancedCORS allows the configured caller origins (CORS_ORIGINS env var,
// comma separated) to call the API with credentials.
func (m *SecurityMiddleware) EnhancedCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		var allowedOrigins []string
		if corsOrigins := os.Getenv("CORS_ORIGINS"); corsOrigins != "" {
			for _, o := range strings.Split(corsOrigins, ",") {
				allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
			}
		}

		for _, allowed := range allowedOrigins {
			if origin != "" && origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-API-Key")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
