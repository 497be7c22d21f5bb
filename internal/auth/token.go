package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unxchange/auth-service/internal/user"
)

var (
	// ErrTokenMalformed means the token string could not be parsed at all.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid means the signature does not match the
	// process secret: tampering, or a token signed elsewhere.
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired means the token parsed and verified but its expiry
	// has passed. Expiry is a hard boundary; no clock-skew leeway.
	ErrTokenExpired = errors.New("token has expired")
)

// TokenClaims is the verified claim set extracted from a bearer token.
type TokenClaims struct {
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// jwtClaims is the wire representation: sub carries the user email.
type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 bearer tokens with a single
// process-wide secret. The secret is fixed for the process lifetime;
// rotation requires a restart. Safe for concurrent use.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret []byte) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}
	return &JWTService{secret: secret}, nil
}

// CreateToken issues a signed token with the subject email, role, issued-at
// and expiry claims. The password or its hash is never embedded.
func (s *JWTService) CreateToken(email string, role user.Role, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates the signature and expiry of a token and returns its
// claims. Failures are distinguished internally (malformed vs signature vs
// expired) for diagnostics; callers surface them uniformly as unauthorized.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrTokenSignatureInvalid
	}

	role, err := user.ParseRole(claims.Role)
	if err != nil || claims.Role == "" {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}

	return &TokenClaims{
		Email:     claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
