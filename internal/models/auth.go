package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials holds an email/password pair for sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session identifies the signed-in principal.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
