package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kendall-kelly/makanika-api/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct{ Cost int }

// Hash returns the bcrypt hash of plain
func (b BcryptHasher) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether plain matches hash
func (b BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// TokenClaims are the application claims carried next to the registered ones.
type TokenClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Validate satisfies validator.CustomClaims.
func (c *TokenClaims) Validate(ctx context.Context) error {
	if c.Role == "" {
		return errors.New("token has no role claim")
	}
	return nil
}

type signedClaims struct {
	TokenClaims
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens
type TokenManager struct {
	secret    []byte
	issuer    string
	audience  string
	ttl       time.Duration
	validator *validator.Validator
}

// NewTokenManager creates a manager for the given secret, issuer, audience and lifetime
func NewTokenManager(secret, issuer, audience string, ttl time.Duration) (*TokenManager, error) {
	key := []byte(secret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return key, nil
	}

	v, err := validator.New(
		keyFunc,
		validator.HS256,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &TokenClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("set up token validator: %w", err)
	}

	return &TokenManager{
		secret:    key,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		validator: v,
	}, nil
}

// TTL returns the lifetime of issued tokens
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Issue signs an access token for the user. The Role association must be loaded.
func (t *TokenManager) Issue(user models.User) (string, error) {
	now := time.Now()
	claims := signedClaims{
		TokenClaims: TokenClaims{
			Role:  user.Role.Name,
			Email: user.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken checks signature, issuer, audience and expiry.
// It has the signature jwtmiddleware expects and returns *validator.ValidatedClaims.
func (t *TokenManager) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	return t.validator.ValidateToken(ctx, token)
}

// SubjectUserID extracts the user id from validated claims
func SubjectUserID(claims *validator.ValidatedClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, &Error{Kind: KindUnauthorized, Code: "INVALID_TOKEN", Message: "Token subject is not a user id"}
	}
	return uint(id), nil
}
