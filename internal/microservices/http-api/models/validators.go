package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	MinScore          = 1
	MaxScore          = 10
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 256
	MaxSlugLength     = 50
)

// ErrValidation is the root of all input validation failures.
// Handlers match it with errors.Is and answer 400.
var ErrValidation = errors.New("validation failed")

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ValidateUsername enforces the username character set, length limit and the
// reserved name "me" (taken by the self-service endpoint).
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username exceeds %d characters", ErrValidation, MaxUsernameLength)
	}
	if username == "me" {
		return fmt.Errorf("%w: username %q is reserved", ErrValidation, username)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username contains forbidden characters", ErrValidation)
	}
	return nil
}

// ValidateYear rejects release years in the future.
func ValidateYear(year int) error {
	current := time.Now().Year()
	if year > current {
		return fmt.Errorf("%w: year cannot be greater than %d", ErrValidation, current)
	}
	return nil
}

// ValidateScore enforces the 1..10 review score range.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: score must be between %d and %d, got %d",
			ErrValidation, MinScore, MaxScore, score)
	}
	return nil
}

// MeanScore computes the arithmetic mean of review scores.
// Returns nil for an empty slice, a title without reviews has no rating.
func MeanScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return &mean
}
