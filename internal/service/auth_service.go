package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"co2_ampel/internal/config"
	"co2_ampel/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("operator not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthDisabled    = errors.New("authentication disabled")
	ErrBadPasswordHash = errors.New("auth.password_hash is not a bcrypt hash")
)

// AuthService signs in the configured operator and checks bearer tokens.
type AuthService struct {
	operators  repository.Operators
	username   string
	hash       string
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(repo repository.Operators, cfg config.AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		operators:  repo,
		username:   strings.TrimSpace(cfg.Username),
		hash:       cfg.PasswordHash,
		signingKey: []byte(cfg.SigningKey),
		tokenTTL:   ttl,
	}
}

// Enabled reports whether an operator is configured. Without one the
// calibration endpoint is open.
func (s *AuthService) Enabled() bool { return s.username != "" }

// Seed stores the configured operator.
func (s *AuthService) Seed(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(s.hash)); err != nil {
		return ErrBadPasswordHash
	}
	if _, err := s.operators.Upsert(ctx, s.username, s.hash); err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}
	return nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// GenerateToken validates credentials and returns a JWT.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrUserNotFound
	}
	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(op.ID)
}

// ParseToken parses a JWT and returns the operator ID.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.OperatorID, nil
}

// HashPassword produces the value for auth.password_hash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(operatorID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: operatorID,
	})
	return token.SignedString(s.signingKey)
}
