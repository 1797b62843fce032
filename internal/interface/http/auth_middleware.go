package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/userauth/internal/domain/auth"
)

// authMiddleware resolves the caller before the handler runs. Every failure
// is the same bare 401 so callers cannot tell why they were refused.
func authMiddleware(resolver auth.Resolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request.Context(), auth.RequestContext{
			BearerToken: bearerToken(c.GetHeader("Authorization")),
			Directory:   getDirectory(c),
		})
		if err != nil {
			logger.Debug("identity resolution refused", "path", c.Request.URL.Path)
			denyUnauthorized(c)
			return
		}
		setIdentity(c, identity)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func denyUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatus(http.StatusUnauthorized)
}
