package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/unxchange/auth-service/internal/logging"
	"github.com/unxchange/auth-service/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	// ErrIdentityNotFound means a token verified but its subject no longer
	// exists; a stateless token can outlive the account it was issued for.
	ErrIdentityNotFound = errors.New("token subject no longer exists")
)

// Identity is the result of authorizing a bearer token: the resolved user
// plus the verified claims. Role-specific checks are the caller's job.
type Identity struct {
	User   *user.User
	Claims *TokenClaims
}

// Service orchestrates registration, login and token authorization.
type Service struct {
	users    user.Store
	tokens   TokenService
	notifier Notifier
	logger   *logging.Logger
	tokenTTL time.Duration
}

func NewService(
	users user.Store,
	tokens TokenService,
	notifier Notifier,
	logger *logging.Logger,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// Register creates a new user account. The returned user carries the hashed
// secret internally; handlers must serialize the public view only.
//
// Registration is atomic from the caller's perspective: any store failure
// means no user was created. The welcome notification is enqueued after the
// insert commits and can never fail the registration.
func (s *Service) Register(ctx context.Context, name, email, password, role string) (*user.User, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	parsedRole, err := user.ParseRole(role)
	if err != nil {
		return nil, err
	}

	// Fast pre-check; the unique index still guards the race window
	// between this lookup and the insert.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash, parsedRole)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Lost the race window between pre-check and insert.
			s.logger.Warn("concurrent registration for same email", "email", email)
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.notifier.NotifyUserCreated(newUser.Name, newUser.Email)

	return newUser, nil
}

// Login authenticates a user and returns a signed bearer token. A missing
// account and a wrong password are indistinguishable to the caller so that
// login errors cannot be used to enumerate registered emails.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.HashedPassword, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existingUser.Email, existingUser.Role, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// Authorize verifies a bearer token and resolves its subject back to a
// live user record.
func (s *Service) Authorize(ctx context.Context, tokenStr string) (*Identity, error) {
	claims, err := s.tokens.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	return &Identity{User: existingUser, Claims: claims}, nil
}

// GetUserByEmail looks up a user for an authenticated caller.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// ListUsers returns all users for an authenticated caller.
// Any valid token suffices; there is no role restriction on this read.
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.users.List(ctx)
}
