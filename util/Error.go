package util

import (
	"errors"
	"strings"
)

// IsDuplicateKeyError reports a Postgres unique violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "23505")
}

// IsError is errors.Is over several targets.
func IsError(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
