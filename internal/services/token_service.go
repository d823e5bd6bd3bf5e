package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour

var ErrInvalidToken = errors.New("token is invalid")

type Session struct {
	UserID  uint
	Email   string
	IsAdmin bool
}

type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("secret is empty")
	}

	return &TokenService{
		secret:   []byte(secret),
		lifetime: tokenLifetime,
	}, nil
}

func (s *TokenService) Issue(userID uint, email string, isAdmin bool) (string, error) {
	if s == nil {
		return "", errors.New("token service is nil")
	}
	if email == "" {
		return "", errors.New("email is empty")
	}

	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"email":    email,
		"is_admin": isAdmin,
		"exp":      jwt.NewNumericDate(time.Now().Add(s.lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *TokenService) Verify(raw string) (Session, error) {
	if s == nil {
		return Session{}, errors.New("token service is nil")
	}
	if raw == "" {
		return Session{}, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Session{}, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return Session{}, ErrInvalidToken
	}

	isAdmin, _ := claims["is_admin"].(bool)

	return Session{
		UserID:  uint(userID),
		Email:   email,
		IsAdmin: isAdmin,
	}, nil
}
