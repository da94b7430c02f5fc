package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the domain entity, mapped 1:1 to the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose in JSON
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserDTO is the safe projection returned to clients.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDTO strips sensitive fields
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
