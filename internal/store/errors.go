package store

import "errors"

// Sentinel errors for experiment lookups and scaffolding.
var (
	ErrNotFound    = errors.New("store: experiment not found")
	ErrExists      = errors.New("store: experiment already exists")
	ErrInvalidName = errors.New("store: invalid experiment name")
)
