package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/application/service"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
)

const (
	GinContextKeyUserID = "userID"

	HeaderAuthToken = "x-auth-token"

	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Token is not valid"
)

// AuthMiddleware accepts the token from x-auth-token or from an
// "Authorization: Bearer" header and stores the caller's id on the context.
func AuthMiddleware(jwtSvc *auth.JWTService, revoker service.TokenRevoker, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.Error(apperror.NewUnauthorized(MsgNoToken, nil))
			c.Abort()
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			c.Error(apperror.NewUnauthorized(MsgInvalidToken, err))
			c.Abort()
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Warn("Revocation check failed, accepting token", zap.String("user_id", claims.UserID.String()), zap.Error(err))
		}
		if revoked {
			c.Error(apperror.NewUnauthorized(MsgInvalidToken, errors.New("token owner was deleted")))
			c.Abort()
			return
		}

		c.Set(GinContextKeyUserID, claims.UserID)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(HeaderAuthToken)); t != "" {
		return t
	}
	authHeader := c.GetHeader("Authorization")
	if t, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
// Server faults are logged in full and answered with an opaque body.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unhandled error", err)
		}

		status := apperror.ToHTTPStatus(appErr)
		if status >= 500 {
			log.Error("Request failed",
				appErr,
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
			)
		} else {
			log.Debug("Request rejected",
				zap.Int("status", status),
				zap.String("path", c.FullPath()),
				zap.String("reason", appErr.Error()),
			)
		}
		c.JSON(status, appErr.ToJSON())
	}
}

func AccessLogMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
