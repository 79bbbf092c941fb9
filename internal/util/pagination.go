package util

import (
	"fmt"
	"strconv"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 10
)

// ParseIntDefault returns def for an empty string and an error for anything
// that is not an integer.
func ParseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

// ParseID parses a positive numeric path id.
func ParseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%q is not a positive integer", s)
	}
	return uint(v), nil
}
