// Package validation holds field-level checks shared by services and tooling.
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLen  = 12
	maxPasswordLen  = 128
	maxTagLen       = 50
	maxThumbnailLen = 2048
)

// ValidatePassword requires 12-128 characters with an upper-case letter, a
// lower-case letter, a digit and a symbol.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("password must contain upper and lower case letters, a digit and a symbol")
	}
	return nil
}

// ValidateTag checks a single, already trimmed tag. Commas are rejected because
// the listing query splits tags on them.
func ValidateTag(tag string) error {
	if utf8.RuneCountInString(tag) > maxTagLen {
		return fmt.Errorf("tag %q is longer than %d characters", tag, maxTagLen)
	}
	if strings.ContainsRune(tag, ',') {
		return fmt.Errorf("tag %q must not contain a comma", tag)
	}
	return nil
}

// ValidateThumbnailURL accepts an empty value or an absolute http(s) URL.
func ValidateThumbnailURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > maxThumbnailLen {
		return fmt.Errorf("thumbnail URL is longer than %d characters", maxThumbnailLen)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("thumbnail must be an absolute http or https URL")
	}
	return nil
}
