package service

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials guarda el usuario del servidor simulado con la password hasheada.
type Credentials struct {
	username     string
	passwordHash []byte
}

func NewCredentials(username, password string) (*Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Credentials{username: username, passwordHash: hash}, nil
}

func (c *Credentials) Username() string { return c.username }

// Authenticate compara usuario y password contra lo configurado.
func (c *Credentials) Authenticate(username, password string) error {
	if c == nil {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
