package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

// DocumentType names a sequence key for number generation.
type DocumentType string

const (
	DocumentTypeJob           DocumentType = "job"
	DocumentTypeEstimate      DocumentType = "estimate"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypePurchaseOrder DocumentType = "po"
	DocumentTypeBill          DocumentType = "bill"
)

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusApproved  JobStatus = "approved"
	JobStatusCompleted JobStatus = "completed"
	JobStatusRejected  JobStatus = "rejected"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *JobStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("job status must be string")
	}
	switch JobStatus(str) {
	case JobStatusDraft, JobStatusSubmitted, JobStatusApproved,
		JobStatusCompleted, JobStatusRejected, JobStatusCancelled:
		*s = JobStatus(str)
		return nil
	default:
		return errors.New("invalid job status")
	}
}

type EstimateStatus string

const (
	EstimateStatusDraft      EstimateStatus = "draft"
	EstimateStatusOpen       EstimateStatus = "open"
	EstimateStatusAccepted   EstimateStatus = "accepted"
	EstimateStatusSuperseded EstimateStatus = "superseded"
	EstimateStatusRejected   EstimateStatus = "rejected"
	EstimateStatusExpired    EstimateStatus = "expired"
)

func (s EstimateStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *EstimateStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("estimate status must be string")
	}
	switch EstimateStatus(str) {
	case EstimateStatusDraft, EstimateStatusOpen, EstimateStatusAccepted,
		EstimateStatusSuperseded, EstimateStatusRejected, EstimateStatusExpired:
		*s = EstimateStatus(str)
		return nil
	default:
		return errors.New("invalid estimate status")
	}
}

type WorkOrderStatus string

const (
	WorkOrderStatusDraft      WorkOrderStatus = "draft"
	WorkOrderStatusIncomplete WorkOrderStatus = "incomplete"
	WorkOrderStatusBlocked    WorkOrderStatus = "blocked"
	WorkOrderStatusComplete   WorkOrderStatus = "complete"
)

func (s WorkOrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *WorkOrderStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("work order status must be string")
	}
	switch WorkOrderStatus(str) {
	case WorkOrderStatusDraft, WorkOrderStatusIncomplete,
		WorkOrderStatusBlocked, WorkOrderStatusComplete:
		*s = WorkOrderStatus(str)
		return nil
	default:
		return errors.New("invalid work order status")
	}
}

type InvoiceStatus string

const (
	InvoiceStatusActive    InvoiceStatus = "active"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *InvoiceStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("invoice status must be string")
	}
	switch InvoiceStatus(str) {
	case InvoiceStatusActive, InvoiceStatusCancelled:
		*s = InvoiceStatus(str)
		return nil
	default:
		return errors.New("invalid invoice status")
	}
}

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft          PurchaseOrderStatus = "draft"
	PurchaseOrderStatusIssued         PurchaseOrderStatus = "issued"
	PurchaseOrderStatusPartlyReceived PurchaseOrderStatus = "partly_received"
	PurchaseOrderStatusReceivedInFull PurchaseOrderStatus = "received_in_full"
	PurchaseOrderStatusCancelled      PurchaseOrderStatus = "cancelled"
)

func (s PurchaseOrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *PurchaseOrderStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("purchase order status must be string")
	}
	switch PurchaseOrderStatus(str) {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusIssued,
		PurchaseOrderStatusPartlyReceived, PurchaseOrderStatusReceivedInFull,
		PurchaseOrderStatusCancelled:
		*s = PurchaseOrderStatus(str)
		return nil
	default:
		return errors.New("invalid purchase order status")
	}
}

type BillStatus string

const (
	BillStatusDraft      BillStatus = "draft"
	BillStatusReceived   BillStatus = "received"
	BillStatusPartlyPaid BillStatus = "partly_paid"
	BillStatusPaidInFull BillStatus = "paid_in_full"
	BillStatusCancelled  BillStatus = "cancelled"
	BillStatusRefunded   BillStatus = "refunded"
)

func (s BillStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *BillStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("bill status must be string")
	}
	switch BillStatus(str) {
	case BillStatusDraft, BillStatusReceived, BillStatusPartlyPaid,
		BillStatusPaidInFull, BillStatusCancelled, BillStatusRefunded:
		*s = BillStatus(str)
		return nil
	default:
		return errors.New("invalid bill status")
	}
}

// ReorderDirection moves a line item one slot within its parent.
type ReorderDirection string

const (
	ReorderDirectionUp   ReorderDirection = "up"
	ReorderDirectionDown ReorderDirection = "down"
)

func (d ReorderDirection) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(d))), nil
}

func (d *ReorderDirection) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("direction must be string")
	}
	switch ReorderDirection(str) {
	case ReorderDirectionUp, ReorderDirectionDown:
		*d = ReorderDirection(str)
		return nil
	default:
		return errors.New("invalid direction")
	}
}
