package auth

import (
	"time"

	"github.com/unxchange/auth-service/internal/user"
)

// TokenService defines the interface for token creation and validation.
// JWTService (HS256) is the production implementation.
type TokenService interface {
	CreateToken(email string, role user.Role, ttl time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Notifier announces a newly created identity to the notification
// collaborator. Implementations must never block the registration path;
// delivery is at-least-effort.
type Notifier interface {
	NotifyUserCreated(name, email string)
}
