package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"watson-sdk/internal/service"
)

// TokenHandler emite tokens de autorizacion por servicio.
type TokenHandler struct {
	logger *zap.Logger
	tokens *service.TokenService
}

func NewTokenHandler(logger *zap.Logger, tokens *service.TokenService) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{logger: logger, tokens: tokens}
}

// GetToken maneja GET /authorization/api/v1/token?url=...
func (h *TokenHandler) GetToken(c *gin.Context) {
	serviceURL := c.Query("url")
	if serviceURL == "" {
		abortWithError(c, http.StatusBadRequest, "Missing url parameter", "")
		return
	}
	token, err := h.tokens.Issue(c.GetString(authUserKey), serviceURL)
	if err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Could not issue token", "")
		return
	}
	c.String(http.StatusOK, token)
}
