package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService emite y valida los tokens del endpoint de autorizacion.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type TokenClaims struct {
	Username   string `json:"username"`
	ServiceURL string `json:"service_url"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "mockwatson",
	}
}

// Issue firma un token para el usuario y el servicio pedidos.
func (s *TokenService) Issue(username, serviceURL string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokenInvalid
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(serviceURL) == "" {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	claims := TokenClaims{
		Username:   username,
		ServiceURL: serviceURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse valida firma, emisor y vencimiento del token.
func (s *TokenService) Parse(tokenString string) (TokenClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return TokenClaims{}, ErrTokenInvalid
	}
	var claims TokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}
	if claims.Issuer != s.issuer || claims.Subject == "" || claims.Subject != claims.Username {
		return TokenClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
