package xdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber parses an unsigned integer literal.
// Both 0x-prefixed hexadecimal ("0x1F") and plain decimal ("31") are accepted.
func ParseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return 0, fmt.Errorf("invalid hex number %q", s)
		}
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex number %q", s)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseOptional parses s, returning def when s is blank.
func parseOptional(s string, def uint64) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseNumber(s)
}

// parseBool accepts "1"/"0", "true"/"false" and numeric literals.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "0", "false", "no":
		return false
	case "true", "yes":
		return true
	}
	v, err := ParseNumber(s)
	return err == nil && v != 0
}
