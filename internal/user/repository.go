package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/unxchange/auth-service/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrInvalidRole    = errors.New("invalid role")
	// ErrUnavailable marks storage faults so callers can tell a bad request
	// apart from an unavailable system. Safe to retry with backoff.
	ErrUnavailable = errors.New("user store unavailable")
)

// Repository handles user persistence on Postgres via bun.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. The unique index on email serializes concurrent
// inserts for the same address: exactly one wins, the rest observe
// ErrDuplicateEmail. A failed insert leaves no partial record.
//
// Email comparison is exact-match (case-sensitive).
func (r *Repository) Create(ctx context.Context, name, email, hashedPassword string, role Role) (*User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	dbUser := &database.User{
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role.String(),
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrUnavailable, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by exact email match. Absence is ErrNotFound,
// not a storage fault.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user by email: %v", ErrUnavailable, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user by id: %v", ErrUnavailable, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List returns all users in id order, fully materialized at call time.
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}

	users := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		users = append(users, mapDBUserToModel(dbu))
	}

	return users, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:             dbu.ID,
		Name:           dbu.Name,
		Email:          dbu.Email,
		HashedPassword: dbu.HashedPassword,
		Role:           Role(dbu.Role),
	}
}
