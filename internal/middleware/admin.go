package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/gatepass/pkg/crypto"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/logger"
	"github.com/charlesng35/gatepass/pkg/response"
)

const (
	// AdminKeyHeader carries the administrator API key.
	AdminKeyHeader = "X-Admin-Key"
	// AdminKeyQuery carries the key for clients that cannot set headers (WebSocket).
	AdminKeyQuery = "key"
)

// AdminOption customises admin authentication.
type AdminOption func(*adminConfig)

type adminConfig struct {
	allowQuery bool
}

// AllowQueryKey additionally accepts the key as a query parameter.
func AllowQueryKey() AdminOption {
	return func(cfg *adminConfig) {
		cfg.allowQuery = true
	}
}

// RequireAdminKey rejects requests whose admin key does not match the bcrypt hash.
func RequireAdminKey(keyHash string, opts ...AdminOption) gin.HandlerFunc {
	cfg := adminConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		candidate := adminKeyFromRequest(c, cfg.allowQuery)
		if candidate == "" || !crypto.VerifySecret(keyHash, candidate) {
			logger.WithModule("http").Warn("admin key rejected",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("key_present", candidate != ""),
			)
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func adminKeyFromRequest(c *gin.Context, allowQuery bool) string {
	if key := strings.TrimSpace(c.GetHeader(AdminKeyHeader)); key != "" {
		return key
	}
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if allowQuery {
		return strings.TrimSpace(c.Query(AdminKeyQuery))
	}
	return ""
}
