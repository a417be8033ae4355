package middleware

import (
	"context"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker 判断令牌是否已因注销或账户停用而失效
type RevocationChecker interface {
	SessionRevoked(ctx context.Context, claims *util.Claims) (bool, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

func authenticate(c *gin.Context, secret string, revoked RevocationChecker) (*util.Claims, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, false
	}

	claims, err := util.ParseJWT(tokenString, secret)
	if err != nil {
		logger.Log.Debug("JWT解析错误", zap.Error(err))
		return nil, false
	}

	if revoked != nil {
		isRevoked, err := revoked.SessionRevoked(c.Request.Context(), claims)
		if err != nil {
			logger.Log.Error("Failed to check token revocation", zap.Error(err))
			return nil, false
		}
		if isRevoked {
			return nil, false
		}
	}
	return claims, true
}

func AuthMiddleware(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, secret, revoked)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		util.SetUserInContext(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware 携带有效令牌时识别用户，否则按匿名请求放行
func OptionalAuthMiddleware(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c, secret, revoked); ok {
			util.SetUserInContext(c, claims)
		}
		c.Next()
	}
}

// AnonymousOnly 拒绝已登录的用户
func AnonymousOnly(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, secret, revoked); ok {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
