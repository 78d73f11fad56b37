package validation

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrLocationEmpty is returned when location is empty or whitespace-only after trim.
	ErrLocationEmpty = errors.New("location is required")
	// ErrLocationTooShort is returned when location length is below the minimum.
	ErrLocationTooShort = errors.New("location too short")
	// ErrLocationTooLong is returned when location length exceeds the maximum.
	ErrLocationTooLong = errors.New("location too long")
	// ErrLocationInvalidChars is returned when location contains a rune that
	// would change the meaning of the provider URL.
	ErrLocationInvalidChars = errors.New("location contains invalid characters")
)

// ValidateLocation trims the input and enforces length bounds (minLen, maxLen
// in runes; zero disables a bound). The client only percent-encodes spaces, so
// anything that could end the URL path early ('/', '?', '#', '%', '&') is
// rejected. Accepted forms cover wttr.in's city names, "lat,lon" pairs,
// airport codes, "~landmark" and "@domain" lookups.
func ValidateLocation(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrLocationTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'', '~', '@', '+':
		return true
	}
	return false
}
