package system

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCapability = errors.New("system: capability already registered")
	ErrCapabilityNotFound  = errors.New("system: capability not found")
	ErrRegistrationClosed  = errors.New("system: registration closed after load")
	ErrAlreadyLoaded       = errors.New("system: systems already loaded")
	ErrNilSystem           = errors.New("system: nil system")
)

// DuplicateCapabilityError is returned when a second system claims a
// capability that is already registered. It is a programming error and
// aborts engine construction.
type DuplicateCapabilityError struct {
	Capability Capability
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("system: capability %q already registered", e.Capability)
}

func (e *DuplicateCapabilityError) Is(target error) bool {
	return target == ErrDuplicateCapability
}

// CapabilityNotFoundError is returned by lookups that have no accessible
// match, including a match that exists but is hidden.
type CapabilityNotFoundError struct {
	Capability Capability
	Reason     string
}

func (e *CapabilityNotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("system: capability %q not found", e.Capability)
	}
	return fmt.Sprintf("system: capability %q not found: %s", e.Capability, e.Reason)
}

func (e *CapabilityNotFoundError) Is(target error) bool {
	return target == ErrCapabilityNotFound
}
