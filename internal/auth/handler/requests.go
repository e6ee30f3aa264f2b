package handler

import (
	"strings"
	"time"

	"github.com/Aldorax/soo-ade/internal/auth/service"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /auth/register.
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Sex         string `json:"sex"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`

	Address         string `json:"address"`
	StateOfOrigin   string `json:"state_of_origin"`
	LocalGovernment string `json:"local_government"`
	Nationality     string `json:"nationality"`
	NIN             string `json:"nin"`

	parsedDateOfBirth time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)

	switch {
	case r.FirstName == "":
		return dErrors.New(dErrors.CodeValidation, "first_name is required")
	case r.LastName == "":
		return dErrors.New(dErrors.CodeValidation, "last_name is required")
	case r.Email == "":
		return dErrors.New(dErrors.CodeValidation, "email is required")
	case len(r.Password) < 8:
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	case strings.TrimSpace(r.DateOfBirth) == "":
		return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
	}

	dob, err := time.Parse("2006-01-02", strings.TrimSpace(r.DateOfBirth))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
	}
	r.parsedDateOfBirth = dob

	return nil
}

// ToInput maps the validated request onto the service input.
func (r *RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		FirstName:       r.FirstName,
		MiddleName:      r.MiddleName,
		LastName:        r.LastName,
		Email:           r.Email,
		Password:        r.Password,
		Sex:             r.Sex,
		DateOfBirth:     r.parsedDateOfBirth,
		Phone:           r.Phone,
		Address:         r.Address,
		StateOfOrigin:   r.StateOfOrigin,
		LocalGovernment: r.LocalGovernment,
		Nationality:     r.Nationality,
		NIN:             r.NIN,
	}
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// RegisterResponse is the body returned by POST /auth/register.
type RegisterResponse struct {
	UserID        string `json:"user_id"`
	ApplicationID string `json:"application_id"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
