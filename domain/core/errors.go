package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Registry errors
	ErrDuplicateType   = errors.New("duplicate particle type")
	ErrDuplicateID     = errors.New("duplicate particle id")
	ErrUnknownType     = errors.New("unknown particle type")
	ErrUnknownParticle = errors.New("unknown particle")

	// Seed derivation errors
	ErrTooManyTypes      = errors.New("particle type count exceeds declared maximum")
	ErrUnknownPurpose    = errors.New("unknown purpose")
	ErrSeedSpaceOverflow = errors.New("derived seed exceeds seed width")

	// Stream errors
	ErrExhaustedSource    = errors.New("recorded source exhausted")
	ErrModeChangeAfterUse = errors.New("stream mode changed after draws were issued")
)

// Error constructors with context
func NewDuplicateTypeError(t TypeName) error {
	return fmt.Errorf("%w: %s", ErrDuplicateType, t)
}

func NewDuplicateIDError(t TypeName, id ParticleID) error {
	return fmt.Errorf("%w: %s in type %s", ErrDuplicateID, id, t)
}

func NewUnknownTypeError(t TypeName) error {
	return fmt.Errorf("%w: %s", ErrUnknownType, t)
}

func NewUnknownParticleError(t TypeName, id ParticleID) error {
	return fmt.Errorf("%w: %s in type %s", ErrUnknownParticle, id, t)
}

func NewTooManyTypesError(t TypeName, nMax int) error {
	return fmt.Errorf("%w: cannot index type %s, limit is %d", ErrTooManyTypes, t, nMax)
}

func NewUnknownPurposeError(p Purpose) error {
	return fmt.Errorf("%w: %s", ErrUnknownPurpose, p)
}

func NewSeedSpaceOverflowError(key GroupKey) error {
	return fmt.Errorf("%w: %s", ErrSeedSpaceOverflow, key)
}

func NewExhaustedSourceError(requested int, remaining uint64) error {
	return fmt.Errorf("%w: requested %d draws, %d recorded draws remain", ErrExhaustedSource, requested, remaining)
}

func NewModeChangeError(key GroupKey) error {
	return fmt.Errorf("%w: %s", ErrModeChangeAfterUse, key)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsRegistryError(err error) bool {
	return errors.Is(err, ErrDuplicateType) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrUnknownParticle)
}

func IsSeedError(err error) bool {
	return errors.Is(err, ErrTooManyTypes) ||
		errors.Is(err, ErrUnknownPurpose) ||
		errors.Is(err, ErrSeedSpaceOverflow)
}

func IsStreamError(err error) bool {
	return errors.Is(err, ErrExhaustedSource) ||
		errors.Is(err, ErrModeChangeAfterUse)
}
