package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Challenge errors. The specific validation errors wrap
	// ErrInvalidChallenge so callers can match either level.
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrInvalidChallenge  = errors.New("invalid challenge configuration")
	ErrEmptyName         = fmt.Errorf("%w: name must not be empty", ErrInvalidChallenge)
	ErrNonPositiveTarget = fmt.Errorf("%w: target must be positive", ErrInvalidChallenge)
	ErrMissingResetDays  = fmt.Errorf("%w: custom type requires reset period days", ErrInvalidChallenge)

	// Streak / freeze errors
	ErrNoFreezeTokens      = errors.New("no freeze tokens available")
	ErrStreakAlreadyFrozen = errors.New("a freeze is already pending")

	// Persistence errors
	ErrDocumentNotFound = errors.New("persisted document not found")
	ErrDocumentCorrupt  = errors.New("persisted document failed to parse")
)
