// Package repository defines error types that are reused across multiple
// repositories.  Lookups report a missing row with a value wrapping
// ErrNotFound so higher layers can tell "absent" apart from a store failure
// with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is the common cause of every "row does not exist" error.
var ErrNotFound = errors.New("not found")

var (
	ErrPipelineNotFound = fmt.Errorf("pipeline %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTokenNotFound    = fmt.Errorf("token %w", ErrNotFound)
)

// ErrTokenRotated reports that a token's secret changed between the read and
// the rotating UPDATE.
var ErrTokenRotated = errors.New("token was rotated concurrently")
