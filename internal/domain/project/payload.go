package project

import (
	"fmt"
	"regexp"
	"strings"
)

// Payload is the writable part of a Project as supplied by callers.
// IsActive is a pointer so that an omitted flag can be told apart from false.
type Payload struct {
	Title       string
	Description string
	LogoURL     string
	IsActive    *bool
}

func (p Payload) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"title", p.Title},
		{"description", p.Description},
		{"logo_url", p.LogoURL},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidPayload, f.name)
		}
	}
	if p.IsActive == nil {
		return fmt.Errorf("%w: is_active must be a boolean", ErrInvalidPayload)
	}
	return nil
}

// One '@', no whitespace on either side, and a dot inside the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
