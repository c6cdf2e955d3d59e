package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"watson-sdk/internal/service"
)

const (
	authUserKey         = "auth_user"
	requestIDKey        = "request_id"
	headerAuthorization = "X-Watson-Authorization-Token"
	headerRequestID     = "X-Global-Transaction-Id"
)

// AuthMiddleware acepta credenciales basicas o un token emitido para el servicio.
// serviceName es el segmento de URL que el token debe cubrir; vacio admite solo
// credenciales basicas.
func AuthMiddleware(creds *service.Credentials, tokens *service.TokenService, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := strings.TrimSpace(c.GetHeader(headerAuthorization)); token != "" && serviceName != "" {
			if tokens == nil {
				abortWithError(c, http.StatusUnauthorized, "Not Authorized", "tokens not configured")
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				description := "invalid token"
				if errors.Is(err, service.ErrTokenExpired) {
					description = "token expired"
				}
				abortWithError(c, http.StatusUnauthorized, "Not Authorized", description)
				return
			}
			if !strings.Contains(claims.ServiceURL, serviceName) {
				abortWithError(c, http.StatusUnauthorized, "Not Authorized", "token not valid for this service")
				return
			}
			c.Set(authUserKey, claims.Username)
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="IBM Watson Gateway"`)
			abortWithError(c, http.StatusUnauthorized, "Not Authorized", "missing credentials")
			return
		}
		if err := creds.Authenticate(username, password); err != nil {
			abortWithError(c, http.StatusUnauthorized, "Not Authorized", "invalid credentials")
			return
		}
		c.Set(authUserKey, username)
		c.Next()
	}
}

// RateLimitMiddleware corta con 429 cuando el usuario autenticado supera su cuota.
func RateLimitMiddleware(limiter service.RequestLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.GetString(authUserKey)) {
			abortWithError(c, http.StatusTooManyRequests, "Too many requests", "")
			return
		}
		c.Next()
	}
}

// requestIDMiddleware propaga o genera un id por request.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// accessLogMiddleware registra cada request con un nivel que sigue al status.
func accessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.String("user", c.GetString(authUserKey)),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("watson mock request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("watson mock request", fields...)
		default:
			logger.Info("watson mock request", fields...)
		}
	}
}
