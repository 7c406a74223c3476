package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest authenticates a user by email.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegistrationLoginRequest authenticates a user by registration code.
type RegistrationLoginRequest struct {
	Registration string `json:"registration" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// RegisterRequest creates a new portal user.
type RegisterRequest struct {
	Name         string   `json:"name" validate:"required,min=2"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8"`
	Registration *string  `json:"registration,omitempty"`
	Role         UserRole `json:"role" validate:"required"`
}

// AuthResponse returns the issued bearer token and user info.
type AuthResponse struct {
	Token     string   `json:"token"`
	Type      string   `json:"type"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// JWTClaims is the access token payload. Subject carries the user email.
type JWTClaims struct {
	UserID string   `json:"userId"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}
