package user

// User is the canonical identity record.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"` // Never expose the hashed secret in JSON
	Role           Role   `json:"role"`
}
