package validation

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	TeamName string
	TeamCode string
}

// ValidateRegisterRequest validates a registration. At most one of TeamName
// and TeamCode may be set. The code itself is checked by the join flow.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	errs := validateName("name", req.Name)
	errs = append(errs, validateEmail(req.Email)...)

	if len(req.Password) < MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	teamName := strings.TrimSpace(req.TeamName)
	teamCode := strings.TrimSpace(req.TeamCode)
	switch {
	case teamName != "" && teamCode != "":
		errs = append(errs, FieldError{Field: "teamCode", Message: "teamName and teamCode are mutually exclusive"})
	case teamName != "":
		errs = append(errs, validateName("teamName", teamName)...)
	}

	return errs
}

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

// InviteRequest mirrors the fields needed for member invite validation.
type InviteRequest struct {
	Name  string
	Email string
}

// ValidateInviteRequest validates a member invite.
func ValidateInviteRequest(req InviteRequest) []FieldError {
	errs := validateName("name", req.Name)
	return append(errs, validateEmail(req.Email)...)
}

func validateEmail(value string) []FieldError {
	email := strings.TrimSpace(value)
	if email == "" {
		return []FieldError{{Field: "email", Message: "email is required"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []FieldError{{Field: "email", Message: "email must be a valid address"}}
	}
	return nil
}
