package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	UUID      uuid.UUID  `json:"id" db:"uuid"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	Avatar    string     `json:"avatar,omitempty" db:"avatar"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
