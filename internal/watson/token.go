package watson

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultAuthorizationURL = "https://gateway.watsonplatform.net/authorization/api"

// TokenClient obtiene tokens de autorizacion para usar con Service.SetToken.
type TokenClient struct {
	svc *Service
}

// NewTokenClient construye un cliente del servicio de autorizacion.
func NewTokenClient(endpoint, username, password string, opts ...Option) *TokenClient {
	if endpoint == "" {
		endpoint = DefaultAuthorizationURL
	}
	svc := NewService("authorization", endpoint, opts...)
	svc.SetUsernameAndPassword(username, password)
	return &TokenClient{svc: svc}
}

// GetToken pide un token valido para el endpoint de servicio indicado.
func (c *TokenClient) GetToken(ctx context.Context, serviceURL string) (string, error) {
	if strings.TrimSpace(serviceURL) == "" {
		return "", fmt.Errorf("service url is required")
	}
	req, err := c.svc.NewRequest(ctx, http.MethodGet, "/v1/token?url="+url.QueryEscape(serviceURL), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	body, err := c.svc.DoRaw(req)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", fmt.Errorf("empty token response")
	}
	return token, nil
}
