package enums

import "fmt"

// EntryState is the lifecycle state of a sweepstakes entry, derived from the
// entry's participation flag and its sibling transaction status.
type EntryState string

const (
	EntryStateNone        EntryState = "NONE"
	EntryStatePending     EntryState = "PENDING"
	EntryStateActive      EntryState = "ACTIVE"
	EntryStateDeclined    EntryState = "DECLINED"
	EntryStateDeactivated EntryState = "DEACTIVATED"
	// EntryStateConflict marks a stored combination no transition produces.
	EntryStateConflict EntryState = "STATE_CONFLICT"
)

var validEntryStates = []EntryState{
	EntryStateNone,
	EntryStatePending,
	EntryStateActive,
	EntryStateDeclined,
	EntryStateDeactivated,
	EntryStateConflict,
}

// String implements fmt.Stringer.
func (e EntryState) String() string {
	return string(e)
}

// IsValid reports whether the value is known.
func (e EntryState) IsValid() bool {
	for _, candidate := range validEntryStates {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntryState converts raw input into an EntryState.
func ParseEntryState(value string) (EntryState, error) {
	for _, candidate := range validEntryStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry state %q", value)
}
