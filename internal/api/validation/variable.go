package validation

import "regexp"

var keyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// CreateVariableRequest mirrors the fields needed for variable create validation.
type CreateVariableRequest struct {
	Key   string
	Value string
}

// ValidateCreateVariableRequest validates a variable create request. Values
// are stored verbatim and may be empty.
func ValidateCreateVariableRequest(req CreateVariableRequest) []FieldError {
	return validateKey(req.Key)
}

// UpdateVariableRequest mirrors the fields needed for variable update validation.
type UpdateVariableRequest struct {
	Key   *string
	Value *string
}

// ValidateUpdateVariableRequest validates a variable update request.
func ValidateUpdateVariableRequest(req UpdateVariableRequest) []FieldError {
	if req.Key == nil && req.Value == nil {
		return []FieldError{{Field: "key", Message: "at least one of key or value is required"}}
	}
	if req.Key != nil {
		return validateKey(*req.Key)
	}
	return nil
}

func validateKey(key string) []FieldError {
	if key == "" {
		return []FieldError{{Field: "key", Message: "key is required"}}
	}
	if len(key) > maxNameLength {
		return []FieldError{{Field: "key", Message: "key must be at most 255 characters"}}
	}
	if !keyRegex.MatchString(key) {
		return []FieldError{{Field: "key", Message: "key must start with a letter or underscore and contain only letters, digits, '_', '.' or '-'"}}
	}
	return nil
}
