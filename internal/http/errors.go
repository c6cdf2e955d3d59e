package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"watson-sdk/internal/repository"
	"watson-sdk/internal/service"
)

// errorBody replica el cuerpo de error de los servicios Watson.
type errorBody struct {
	Code        int    `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description,omitempty"`
}

func abortWithError(c *gin.Context, status int, message, description string) {
	c.AbortWithStatusJSON(status, errorBody{Code: status, Error: message, Description: description})
}

// statusFor traduce errores del dominio a codigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrClassifierNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrClassifierNotReady),
		errors.Is(err, repository.ErrClassifierExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidTrainingData),
		errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrNotEnoughWords),
		errors.Is(err, service.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		abortWithError(c, status, "Not found", err.Error())
	case http.StatusInternalServerError:
		abortWithError(c, status, "Internal server error", "")
	default:
		abortWithError(c, status, err.Error(), "")
	}
}
