package validation

// TeamRequest mirrors the fields needed for team create and rename validation.
type TeamRequest struct {
	Name string
}

// ValidateTeamRequest validates a team create or rename request.
func ValidateTeamRequest(req TeamRequest) []FieldError {
	return validateName("name", req.Name)
}
