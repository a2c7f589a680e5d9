package entries

import (
	"fmt"

	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/enums"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
)

// Event drives a transition of an existing entry.
type Event string

const (
	EventOptIn  Event = "OPT_IN"
	EventOptOut Event = "OPT_OUT"
	EventRefund Event = "REFUND"
)

// Transition is one row of the lifecycle table.
type Transition struct {
	From       enums.EntryState
	To         enums.EntryState
	Event      Event
	Contribute bool
}

// NoOp reports whether applying the transition would write nothing.
func (t Transition) NoOp() bool {
	return t.From == t.To && !t.Contribute
}

// Label names the transition for logs and metrics, e.g. "PENDING->ACTIVE".
func (t Transition) Label() string {
	return fmt.Sprintf("%s->%s", t.From, t.To)
}

type stateFields struct {
	isActive bool
	status   enums.TransactionStatus
}

var fieldsByState = map[enums.EntryState]stateFields{
	enums.EntryStatePending:     {isActive: false, status: enums.TransactionStatusPending},
	enums.EntryStateActive:      {isActive: true, status: enums.TransactionStatusCompleted},
	enums.EntryStateDeclined:    {isActive: false, status: enums.TransactionStatusFailed},
	enums.EntryStateDeactivated: {isActive: false, status: enums.TransactionStatusRefunded},
}

// transitions lists every allowed move; anything absent is a state conflict.
// Contributions are applied at most once per order by the pool ledger, so a
// DECLINED entry opting back in contributes only if it never did before.
var transitions = map[enums.EntryState]map[Event]Transition{
	enums.EntryStatePending: {
		EventOptIn:  {To: enums.EntryStateActive, Contribute: true},
		EventOptOut: {To: enums.EntryStateDeclined},
		EventRefund: {To: enums.EntryStateDeactivated},
	},
	enums.EntryStateActive: {
		EventOptIn:  {To: enums.EntryStateActive},
		EventOptOut: {To: enums.EntryStateDeclined},
		EventRefund: {To: enums.EntryStateDeactivated},
	},
	enums.EntryStateDeclined: {
		EventOptIn:  {To: enums.EntryStateActive, Contribute: true},
		EventOptOut: {To: enums.EntryStateDeclined},
		EventRefund: {To: enums.EntryStateDeactivated},
	},
	enums.EntryStateDeactivated: {
		EventOptOut: {To: enums.EntryStateDeactivated},
		EventRefund: {To: enums.EntryStateDeactivated},
	},
}

// DeriveState reads the lifecycle state from an entry and its transaction.
// A missing entry is NONE; a combination outside the table is a conflict.
func DeriveState(entry *models.Entry, txn *models.Transaction) (enums.EntryState, error) {
	if entry == nil {
		return enums.EntryStateNone, nil
	}
	if txn == nil {
		return "", stateConflict("entry has no transaction", entry.OrderID)
	}
	for state, fields := range fieldsByState {
		if fields.isActive == entry.IsActive && fields.status == txn.Status {
			return state, nil
		}
	}
	return "", stateConflict(fmt.Sprintf("inconsistent entry state (active=%t, status=%s)", entry.IsActive, txn.Status), entry.OrderID)
}

// Next looks up the transition for event from state.
func Next(from enums.EntryState, event Event) (Transition, error) {
	if from == enums.EntryStateNone {
		return Transition{}, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
	}
	row, ok := transitions[from][event]
	if !ok {
		return Transition{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot apply %s to %s entry", event, from)).
			WithDetails(map[string]any{"from": from, "event": event})
	}
	row.From = from
	row.Event = event
	return row, nil
}

func stateConflict(msg, orderID string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithDetails(map[string]any{"orderId": orderID})
}
