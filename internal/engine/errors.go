package engine

import (
	"errors"
	"fmt"
)

// Reason identifies a business-rule refusal. Rejections are part of the
// normal interaction flow and are reported to the user, never logged as
// errors.
type Reason string

const (
	ReasonRegistrationClosed Reason = "registration_closed"
	ReasonUnknownSlot        Reason = "unknown_slot"
	ReasonSlotFull           Reason = "slot_full"
	ReasonAlreadyClaimed     Reason = "already_claimed"
	ReasonNotRegistered      Reason = "not_registered"
	ReasonNotOwner           Reason = "not_owner"
	ReasonAllSlotsFull       Reason = "all_slots_full"
	ReasonEmptyPosition      Reason = "empty_position"
	ReasonNothingBooked      Reason = "nothing_booked"
	ReasonAlreadyHasSlot     Reason = "already_has_slot"
)

// RejectedError is returned when an operation is refused by a business
// rule. No state was mutated.
type RejectedError struct {
	Reason Reason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected: %s", e.Reason)
}

func reject(r Reason) error {
	return &RejectedError{Reason: r}
}

// RejectionReason extracts the rejection reason from an error, if any.
func RejectionReason(err error) (Reason, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

// ValidationError is returned for malformed input, before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PersistenceError wraps a snapshot save failure. The in-memory mutation
// succeeded; the caller should tell the user the action may not have been
// durably recorded. The next successful mutation retries the save.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist state: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
