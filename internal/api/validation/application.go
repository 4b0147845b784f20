package validation

// ApplicationRequest mirrors the fields needed for application create and rename validation.
type ApplicationRequest struct {
	Name string
}

// ValidateApplicationRequest validates an application create or rename request.
func ValidateApplicationRequest(req ApplicationRequest) []FieldError {
	return validateName("name", req.Name)
}
