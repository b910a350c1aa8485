package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrEmptyName rejects item creation without a display name.
	ErrEmptyName = errors.New("item name must not be empty")

	// ErrNotEnoughItems means the pool cannot produce a pair yet.
	ErrNotEnoughItems = errors.New("not enough items for a match")

	// ErrInvalidJudgment rejects malformed judgment submissions.
	ErrInvalidJudgment = errors.New("invalid judgment")

	// ErrQueueFull means the judgment queue refused the submission.
	ErrQueueFull = errors.New("judgment queue is full")
)
