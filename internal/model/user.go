package model

import (
	"github.com/google/uuid"
)

// Role tags an authenticated user. Every role maps to exactly one
// profile table; profile resolution dispatches on this enum rather
// than constructing table names at runtime.
type Role string

const (
	RolePatient    Role = "PATIENT"
	RoleDoctor     Role = "DOCTOR"
	RolePharmacist Role = "PHARMACIST"
	RoleInsurer    Role = "INSURER"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether the role is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacist, RoleInsurer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Base
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Name         string `db:"name" json:"name"`
	Role         Role   `db:"role" json:"role"`
}

// Principal is the already-authenticated caller context handed to every
// service operation.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,notblank"`
	Role     Role   `json:"role" binding:"required,oneof=PATIENT DOCTOR PHARMACIST INSURER ADMIN"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
