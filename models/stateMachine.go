package models

import (
	"sort"

	"bitbucket.org/smallops/backoffice_backend/utils"
)

// TransitionTable maps each status to the set of statuses reachable from
// it. A status missing from the table, or mapped to an empty set, is
// terminal.
type TransitionTable[S ~string] map[S][]S

// Allowed reports whether from -> to is a declared transition.
func (t TransitionTable[S]) Allowed(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (t TransitionTable[S]) IsTerminal(s S) bool {
	return len(t[s]) == 0
}

// Validate checks from -> to against the table. An unchanged status is
// always fine; other field edits proceed without transition checks.
func (t TransitionTable[S]) Validate(doc string, from, to S) error {
	if from == to {
		return nil
	}
	if t.IsTerminal(from) {
		return &utils.TerminalStateError{Doc: doc, Status: string(from)}
	}
	if !t.Allowed(from, to) {
		allowed := make([]string, 0, len(t[from]))
		for _, next := range t[from] {
			allowed = append(allowed, string(next))
		}
		sort.Strings(allowed)
		return &utils.InvalidTransitionError{
			Doc:     doc,
			From:    string(from),
			To:      string(to),
			Allowed: allowed,
		}
	}
	return nil
}

var jobTransitions = TransitionTable[JobStatus]{
	JobStatusDraft:     {JobStatusSubmitted, JobStatusRejected},
	JobStatusSubmitted: {JobStatusApproved, JobStatusRejected},
	JobStatusApproved:  {JobStatusCompleted, JobStatusCancelled},
	JobStatusRejected:  {},
	JobStatusCompleted: {},
	JobStatusCancelled: {},
}

var estimateTransitions = TransitionTable[EstimateStatus]{
	EstimateStatusDraft:      {EstimateStatusOpen, EstimateStatusRejected},
	EstimateStatusOpen:       {EstimateStatusAccepted, EstimateStatusSuperseded, EstimateStatusRejected, EstimateStatusExpired},
	EstimateStatusAccepted:   {},
	EstimateStatusSuperseded: {},
	EstimateStatusRejected:   {},
	EstimateStatusExpired:    {},
}

var workOrderTransitions = TransitionTable[WorkOrderStatus]{
	WorkOrderStatusDraft:      {WorkOrderStatusIncomplete, WorkOrderStatusBlocked},
	WorkOrderStatusIncomplete: {WorkOrderStatusBlocked, WorkOrderStatusComplete},
	WorkOrderStatusBlocked:    {WorkOrderStatusIncomplete, WorkOrderStatusComplete},
	WorkOrderStatusComplete:   {},
}

var invoiceTransitions = TransitionTable[InvoiceStatus]{
	InvoiceStatusActive:    {InvoiceStatusCancelled},
	InvoiceStatusCancelled: {},
}

var purchaseOrderTransitions = TransitionTable[PurchaseOrderStatus]{
	PurchaseOrderStatusDraft:          {PurchaseOrderStatusIssued},
	PurchaseOrderStatusIssued:         {PurchaseOrderStatusPartlyReceived, PurchaseOrderStatusReceivedInFull, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartlyReceived: {PurchaseOrderStatusReceivedInFull},
	PurchaseOrderStatusReceivedInFull: {},
	PurchaseOrderStatusCancelled:      {},
}

var billTransitions = TransitionTable[BillStatus]{
	BillStatusDraft:      {BillStatusReceived},
	BillStatusReceived:   {BillStatusPartlyPaid, BillStatusPaidInFull, BillStatusCancelled},
	BillStatusPartlyPaid: {BillStatusPaidInFull},
	BillStatusPaidInFull: {BillStatusRefunded},
	BillStatusCancelled:  {},
	BillStatusRefunded:   {},
}
