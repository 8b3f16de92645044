package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleNasabah Role = "nasabah"
)

// Staff and admins may act on any account
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	FullName       string
	Email          string
	HashedPassword string
	Role           Role
	Address        string
	Phone          string
}

const (
	SortByFullName = "fullName"
	SortByEmail    = "email"
)

type UserFilter struct {
	Role    Role
	Keyword string // case-insensitive match on full name or email
	SortBy  string // SortByFullName (default), SortByEmail or SortByCreatedAt
	Desc    bool
	Page    PageRequest
}
