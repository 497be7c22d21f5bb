package database

import "github.com/uptrace/bun"

// User is the persisted representation of a user account.
//
// Schema:
//
//	CREATE TABLE users (
//	    id              BIGSERIAL PRIMARY KEY,
//	    name            TEXT NOT NULL,
//	    email           TEXT NOT NULL UNIQUE,
//	    hashed_password TEXT NOT NULL,
//	    role            TEXT NOT NULL
//	);
//
// The unique index on email is what makes the check-and-insert in the
// repository atomic under concurrent registrations.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64  `bun:"id,pk,autoincrement"`
	Name           string `bun:"name,notnull"`
	Email          string `bun:"email,notnull,unique"`
	HashedPassword string `bun:"hashed_password,notnull"`
	Role           string `bun:"role,notnull"`
}
