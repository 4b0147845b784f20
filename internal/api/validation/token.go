package validation

import "strings"

// RevokeTokenRequest mirrors the fields needed for token revoke validation.
type RevokeTokenRequest struct {
	Token string
}

// ValidateRevokeTokenRequest validates a token revoke request.
func ValidateRevokeTokenRequest(req RevokeTokenRequest) []FieldError {
	if strings.TrimSpace(req.Token) == "" {
		return []FieldError{{Field: "token", Message: "token is required"}}
	}
	return nil
}
