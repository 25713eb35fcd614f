// Package store holds the errors shared by every storage implementation.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity that must exist is missing.
	// Lookups that can legitimately find nothing return nil instead.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert would violate a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrActiveCycleExists is returned when a pairing key already has an
	// active cycle, or the requested sequence number is taken.
	ErrActiveCycleExists = fmt.Errorf("%w: active cycle", ErrDuplicate)

	// ErrCycleNotFound indicates the referenced cycle does not exist.
	ErrCycleNotFound = fmt.Errorf("%w: cycle", ErrNotFound)
)
