package user

import "context"

// Store is the persistence contract the authentication flow depends on.
// *Repository is the Postgres implementation; *CachedStore layers a redis
// read-through cache on top of any Store.
type Store interface {
	Create(ctx context.Context, name, email, hashedPassword string, role Role) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
}
