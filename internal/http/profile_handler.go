package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"watson-sdk/internal/domain"
	"watson-sdk/internal/service"
)

const maxProfileBody = 20 << 20

// ProfileHandler atiende POST /v2/profile de Personality Insights.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
	maxBody  int64
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{logger: logger, profiles: profiles, maxBody: maxProfileBody}
}

// GetProfile acepta texto plano, html o un JSON con contentItems.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	var content domain.Content
	contentType := c.ContentType()
	switch contentType {
	case "application/json":
		if err := c.ShouldBindJSON(&content); err != nil {
			if isTooLarge(err) {
				abortWithError(c, http.StatusRequestEntityTooLarge, "Request too large", "")
				return
			}
			abortWithError(c, http.StatusBadRequest, "Invalid JSON input", err.Error())
			return
		}
		if len(content.ContentItems) == 0 {
			abortWithError(c, http.StatusBadRequest, "contentItems is required", "")
			return
		}
	case "", domain.ContentTypeText, domain.ContentTypeHTML:
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if isTooLarge(err) {
				abortWithError(c, http.StatusRequestEntityTooLarge, "Request too large", "")
				return
			}
			abortWithError(c, http.StatusBadRequest, "Could not read body", "")
			return
		}
		if contentType == "" {
			contentType = domain.ContentTypeText
		}
		content.ContentItems = []domain.ContentItem{{Content: string(body), ContentType: contentType}}
	default:
		abortWithError(c, http.StatusUnsupportedMediaType, "Unsupported content type", contentType)
		return
	}

	includeRaw, _ := strconv.ParseBool(c.Query("include_raw"))
	profile, err := h.profiles.BuildProfile(service.ProfileInput{
		Content:    content,
		Language:   headerLanguage(c.GetHeader("Content-Language")),
		IncludeRaw: includeRaw,
	})
	if err != nil {
		h.logger.Warn("build profile failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// headerLanguage reduce "en-US" o "es;q=0.8" al codigo de dos letras.
func headerLanguage(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "-_;,"); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(value)
}
