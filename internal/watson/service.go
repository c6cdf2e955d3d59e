package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	HeaderAuthorizationToken = "X-Watson-Authorization-Token"
	HeaderLearningOptOut     = "X-Watson-Learning-Opt-Out"
	HeaderTest               = "X-Watson-Test"

	userAgent      = "watson-sdk-go"
	defaultTimeout = 60 * time.Second
)

// Service concentra lo comun a todos los clientes de Watson: endpoint,
// credenciales, headers por defecto y decodificacion de respuestas.
// Los setters no son seguros para uso concurrente con requests en vuelo.
type Service struct {
	name           string
	endpoint       string
	username       string
	password       string
	token          string
	defaultHeaders map[string]string
	client         *http.Client
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
}

// Option ajusta un Service al construirlo.
type Option func(*Service)

// WithHTTPClient reemplaza el cliente HTTP (por ejemplo el de un httptest.Server).
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout fija el timeout de los requests. Se aplica sobre una copia del
// cliente, asi que un *http.Client compartido no se modifica.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger usa el logger dado para registrar cada request.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit limita los requests por segundo; 0 o negativo lo desactiva.
func WithRateLimit(perSecond float64) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewService construye el nucleo compartido para el servicio indicado.
func NewService(name, endpoint string, opts ...Option) *Service {
	s := &Service{
		name:           name,
		endpoint:       strings.TrimRight(endpoint, "/"),
		defaultHeaders: map[string]string{},
		client:         &http.Client{Timeout: defaultTimeout},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 && s.client.Timeout != s.timeout {
		client := *s.client
		client.Timeout = s.timeout
		s.client = &client
	}
	return s
}

func (s *Service) Name() string { return s.name }

func (s *Service) EndPoint() string { return s.endpoint }

func (s *Service) SetEndPoint(endpoint string) {
	s.endpoint = strings.TrimRight(endpoint, "/")
}

// SetUsernameAndPassword configura autenticacion basica.
func (s *Service) SetUsernameAndPassword(username, password string) {
	s.username = username
	s.password = password
}

// SetToken usa un token de autorizacion en lugar de las credenciales basicas.
func (s *Service) SetToken(token string) {
	s.token = token
}

// SetDefaultHeaders reemplaza los headers que se envian en cada request.
func (s *Service) SetDefaultHeaders(headers map[string]string) {
	s.defaultHeaders = make(map[string]string, len(headers))
	for k, v := range headers {
		s.defaultHeaders[k] = v
	}
}

// NewRequest arma un request relativo al endpoint con auth y headers aplicados.
func (s *Service) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint not configured", s.name)
	}
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range s.defaultHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	switch {
	case s.token != "":
		req.Header.Set(HeaderAuthorizationToken, s.token)
	case s.username != "":
		req.SetBasicAuth(s.username, s.password)
	}
	return req, nil
}

// NewJSONRequest serializa in como cuerpo JSON.
func (s *Service) NewJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := s.NewRequest(ctx, method, path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Do ejecuta el request y decodifica la respuesta JSON en out si no es nil.
func (s *Service) Do(req *http.Request, out any) error {
	body, err := s.DoRaw(req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// DoRaw ejecuta el request y devuelve el cuerpo sin decodificar.
func (s *Service) DoRaw(req *http.Request) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("watson request failed",
			zap.String("service", s.name),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	s.logger.Debug("watson request",
		zap.String("service", s.name),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		serr := NewServiceError(resp.StatusCode, respBody)
		s.logger.Warn("watson error response",
			zap.String("service", s.name),
			zap.Int("status", resp.StatusCode),
			zap.String("error", serr.Message),
		)
		return nil, serr
	}
	return respBody, nil
}
