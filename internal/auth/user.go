package auth

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`

	// never leaves the service
	PasswordHash string `json:"-"`
}
