package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL     = 24 * time.Hour
	tokenSubject = "admin"
)

var (
	// ErrAuthDisabled is returned by Login when no admin password is configured
	ErrAuthDisabled = errors.New("authentication is not configured")
	// ErrInvalidCredentials is returned by Login for a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Login checks password against the configured bcrypt hash and returns a signed JWT
func (s *Service) Login(password string) (string, error) {
	if s.config.AdminPasswordHash == "" || s.config.JWTSecret == "" {
		return "", ErrAuthDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info("Admin token issued")
	return tokenString, nil
}
