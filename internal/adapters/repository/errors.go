package repository

import "errors"

// Sentinel kinds for pool store errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrDuplicateID  = errors.New("item id already exists")
	ErrInvalidLimit = errors.New("invalid standings limit")
	ErrSelfPair     = errors.New("judgment must name two distinct items")
)
