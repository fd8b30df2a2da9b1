package model

import (
	"errors"
	"regexp"
	"strings"
)

// Field constraints shared across request validation.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxFullNameLength = 100

	MaxPageLimit     = 100
	DefaultPageLimit = 20
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	fullNameRe = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
	letterRe   = regexp.MustCompile(`[a-zA-Z]`)
)

// hasRepeatedRun reports whether s contains n or more identical consecutive
// runes.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, c := range s {
		if c == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = c
			run = 1
		}
	}
	return false
}

// reservedUsernames cannot be registered regardless of case.
var reservedUsernames = map[string]struct{}{
	"admin": {}, "administrator": {}, "root": {}, "system": {}, "api": {},
	"www": {}, "mail": {}, "email": {}, "support": {}, "help": {},
	"info": {}, "contact": {}, "test": {}, "demo": {}, "guest": {},
	"anonymous": {}, "null": {}, "undefined": {},
}

// weakPasswords are rejected even when they satisfy the character classes.
var weakPasswords = map[string]struct{}{
	"password": {}, "password123": {}, "12345678": {}, "qwerty123": {},
	"admin123": {}, "letmein": {}, "welcome123": {}, "changeme": {},
	"password123!": {}, "admin123!": {}, "welcome123!": {},
}

// ValidateUsername checks format, length, and reserved-name rules
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return errors.New("username must be 3-50 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, underscore, and hyphen")
	}
	if _, ok := reservedUsernames[strings.ToLower(username)]; ok {
		return errors.New("username is reserved")
	}
	if strings.Contains(username, "--") || strings.Contains(username, "__") ||
		strings.Contains(username, "-_") || strings.Contains(username, "_-") {
		return errors.New("username cannot contain consecutive special characters")
	}
	if strings.HasPrefix(username, "-") || strings.HasPrefix(username, "_") ||
		strings.HasSuffix(username, "-") || strings.HasSuffix(username, "_") {
		return errors.New("username cannot start or end with special characters")
	}
	return nil
}

// IsValidEmail performs a basic shape check on an email address
func IsValidEmail(email string) bool {
	return len(email) <= 255 && emailRe.MatchString(email)
}

// ValidateFullName checks characters and normalizes nothing; callers should
// pass the name through NormalizeFullName first.
func ValidateFullName(name string) error {
	if name == "" || len(name) > MaxFullNameLength {
		return errors.New("full name must be 1-100 characters")
	}
	if !fullNameRe.MatchString(name) {
		return errors.New("full name may only contain letters, spaces, hyphens, apostrophes, and periods")
	}
	if !letterRe.MatchString(name) {
		return errors.New("full name must contain at least one letter")
	}
	return nil
}

// NormalizeFullName collapses runs of whitespace into single spaces
func NormalizeFullName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ValidatePassword enforces the password strength policy: length bounds, one
// lowercase, one uppercase, one digit, one special character, not on the
// common-password denylist, no run of four identical characters.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 128 characters")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, c):
			hasSpecial = true
		}
	}
	switch {
	case !hasLower:
		return errors.New("password must contain at least one lowercase letter")
	case !hasUpper:
		return errors.New("password must contain at least one uppercase letter")
	case !hasDigit:
		return errors.New("password must contain at least one digit")
	case !hasSpecial:
		return errors.New("password must contain at least one special character")
	}
	if _, ok := weakPasswords[strings.ToLower(password)]; ok {
		return errors.New("password is too common")
	}
	if hasRepeatedRun(password, 4) {
		return errors.New("password cannot repeat a character more than 3 times in a row")
	}
	return nil
}

// ValidatePagination checks offset pagination bounds
func ValidatePagination(skip, limit int) []FieldError {
	var errs []FieldError
	if skip < 0 {
		errs = append(errs, FieldError{Field: "skip", Message: "skip cannot be negative"})
	}
	if limit < 1 {
		errs = append(errs, FieldError{Field: "limit", Message: "limit must be at least 1"})
	} else if limit > MaxPageLimit {
		errs = append(errs, FieldError{Field: "limit", Message: "limit cannot exceed 100"})
	}
	return errs
}
