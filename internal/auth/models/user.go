package models

import (
	"time"

	"github.com/google/uuid"
)

// Role separates citizens applying for a certificate from the officials
// reviewing them.
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleAdmin     Role = "ADMIN"
)

// User is a registered citizen (or administrator). A user owns at most one
// Application and zero or more Transactions.
type User struct {
	ID           uuid.UUID
	FirstName    string
	MiddleName   string
	LastName     string
	Email        string
	PasswordHash string
	Sex          string
	DateOfBirth  time.Time
	Phone        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName renders the display name used on certificates and dashboards.
func (u *User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}
