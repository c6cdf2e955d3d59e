package watson

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrRequestTooLarge      = errors.New("request too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrTooManyRequests      = errors.New("too many requests")
	ErrInternalServer       = errors.New("internal server error")
	ErrServiceUnavailable   = errors.New("service unavailable")
)

var statusErrors = map[int]error{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusForbidden:             ErrForbidden,
	http.StatusNotFound:              ErrNotFound,
	http.StatusConflict:              ErrConflict,
	http.StatusRequestEntityTooLarge: ErrRequestTooLarge,
	http.StatusUnsupportedMediaType:  ErrUnsupportedMediaType,
	http.StatusTooManyRequests:       ErrTooManyRequests,
	http.StatusInternalServerError:   ErrInternalServer,
	http.StatusServiceUnavailable:    ErrServiceUnavailable,
}

// ServiceError es una respuesta de error del servicio. Se puede comparar con
// errors.Is contra los errores de estado exportados.
type ServiceError struct {
	StatusCode  int
	Message     string
	Description string
}

// ErrorBody es el formato JSON con el que Watson reporta errores.
type ErrorBody struct {
	Code         int    `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Description  string `json:"description,omitempty"`
}

// NewServiceError interpreta el cuerpo de una respuesta con estado >= 400.
func NewServiceError(status int, body []byte) *ServiceError {
	serr := &ServiceError{StatusCode: status}

	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		serr.Message = eb.Error
		if serr.Message == "" {
			serr.Message = eb.ErrorMessage
		}
		serr.Description = eb.Description
	} else {
		serr.Message = strings.TrimSpace(string(body))
	}
	if serr.Message == "" {
		serr.Message = http.StatusText(status)
	}
	return serr
}

func (e *ServiceError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("watson: status %d: %s: %s", e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("watson: status %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return statusErrors[e.StatusCode]
}

// StatusCode devuelve el estado HTTP de err si es un ServiceError, o 0.
func StatusCode(err error) int {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	return 0
}
