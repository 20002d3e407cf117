package validation

import "regexp"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
