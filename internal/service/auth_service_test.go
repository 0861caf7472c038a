package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"co2_ampel/internal/config"
	"co2_ampel/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "test-signing-key"

// mockOperatorRepo is a lightweight in-test mock for repository.Operators.
type mockOperatorRepo struct {
	UpsertFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.Operator, error)

	upserts []string
}

func (m *mockOperatorRepo) Upsert(ctx context.Context, username, hash string) (int, error) {
	m.upserts = append(m.upserts, username)
	return m.UpsertFn(username, hash)
}

func (m *mockOperatorRepo) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	return m.GetByUsernameFn(username)
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func authConfig(hash string) config.AuthConfig {
	return config.AuthConfig{Username: "admin", PasswordHash: hash, SigningKey: testSigningKey, TokenTTL: time.Hour}
}

// --- Seed tests ---

func TestAuthService_Seed_UpsertsConfiguredOperator(t *testing.T) {
	repo := &mockOperatorRepo{UpsertFn: func(username, hash string) (int, error) { return 1, nil }}
	svc := NewAuthService(repo, authConfig(mustHash(t, "s3cr3t")))

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if len(repo.upserts) != 1 || repo.upserts[0] != "admin" {
		t.Fatalf("expected one upsert for admin, got %v", repo.upserts)
	}
}

func TestAuthService_Seed_DisabledIsNoop(t *testing.T) {
	repo := &mockOperatorRepo{}
	svc := NewAuthService(repo, config.AuthConfig{})

	if svc.Enabled() {
		t.Fatalf("expected auth disabled without username")
	}
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("expected no upserts, got %v", repo.upserts)
	}
}

func TestAuthService_Seed_RejectsPlainPassword(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, authConfig("plaintext"))
	if err := svc.Seed(context.Background()); !errors.Is(err, ErrBadPasswordHash) {
		t.Fatalf("expected ErrBadPasswordHash, got %v", err)
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	hash := mustHash(t, "s3cr3t")
	repo := &mockOperatorRepo{
		GetByUsernameFn: func(username string) (*models.Operator, error) {
			return &models.Operator{ID: 7, Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(repo, authConfig(hash))

	token, err := svc.GenerateToken(context.Background(), "admin", "s3cr3t")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	id, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected operator id 7, got %d", id)
	}
}

func TestAuthService_GenerateToken_Errors(t *testing.T) {
	hash := mustHash(t, "s3cr3t")
	tests := []struct {
		name string
		cfg  config.AuthConfig
		get  func(string) (*models.Operator, error)
		pw   string
		want error
	}{
		{
			name: "disabled",
			cfg:  config.AuthConfig{},
			want: ErrAuthDisabled,
		},
		{
			name: "operator not found",
			cfg:  authConfig(hash),
			get:  func(string) (*models.Operator, error) { return nil, nil },
			want: ErrUserNotFound,
		},
		{
			name: "wrong password",
			cfg:  authConfig(hash),
			get: func(u string) (*models.Operator, error) {
				return &models.Operator{ID: 1, Username: u, PasswordHash: hash}, nil
			},
			pw:   "nope",
			want: ErrInvalidPassword,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(&mockOperatorRepo{GetByUsernameFn: tt.get}, tt.cfg)
			_, err := svc.GenerateToken(context.Background(), "admin", tt.pw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthService_GenerateToken_RepoError(t *testing.T) {
	repo := &mockOperatorRepo{
		GetByUsernameFn: func(username string) (*models.Operator, error) {
			return nil, errors.New("query failed")
		},
	}
	svc := NewAuthService(repo, authConfig(mustHash(t, "pw")))

	if _, err := svc.GenerateToken(context.Background(), "admin", "pw"); err == nil {
		t.Fatalf("expected repo error, got nil")
	}
}

// --- ParseToken tests ---

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, authConfig(""))
	if _, err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, authConfig(""))

	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: 5,
	})
	badToken, err := tk.SignedString([]byte("different-key"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err = svc.ParseToken(badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, authConfig(""))

	past := time.Now().Add(-2 * time.Hour)
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
		},
		OperatorID: 11,
	})
	expiredToken, err := tk.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err = svc.ParseToken(expiredToken); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := NewAuthService(&mockOperatorRepo{}, authConfig(""))

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: 12,
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err = svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("  "); err == nil {
		t.Fatalf("expected error for empty password")
	}
	h, err := HashPassword("s3cr3t")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if verifyPassword(h, "s3cr3t") != nil {
		t.Fatalf("hash does not verify")
	}
}
