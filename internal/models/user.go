package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User stores a salted bcrypt hash, never the raw credential.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk" json:"id"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	FullName     string    `bun:"full_name,notnull" json:"full_name"`
	Phone        string    `bun:"phone" json:"phone,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	IsAdmin      bool      `bun:"is_admin" json:"is_admin"`
	IsMainAdmin  bool      `bun:"is_main_admin" json:"is_main_admin"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
