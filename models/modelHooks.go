package models

import (
	"time"

	"bitbucket.org/smallops/backoffice_backend/utils"
	"gorm.io/gorm"
)

// storedRow reads the committed row inside the ongoing transaction,
// bypassing the statement being built, so hooks can compare against
// what is actually in the database.
func storedRow[T any](tx *gorm.DB, id int) (*T, error) {
	var stored T
	err := tx.Session(&gorm.Session{NewDB: true}).First(&stored, id).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

/*
Update hooks enforce two rules for every document:

  - the document number, creation timestamp, and milestone dates are
    never writable; milestones are stamped by status transitions only,
    and values arriving through a plain update are silently put back
  - a status change must be a legal move in the document's table

Running in BeforeUpdate means no caller can bypass them.
*/

func (j *Job) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[Job](tx, j.ID)
	if err != nil {
		return err
	}

	j.JobNumber = stored.JobNumber
	j.CreatedAt = stored.CreatedAt
	j.StartDate = stored.StartDate
	j.CompletedDate = stored.CompletedDate

	if j.Status != stored.Status {
		if err := jobTransitions.Validate("job", stored.Status, j.Status); err != nil {
			return err
		}
		now := time.Now()
		switch j.Status {
		case JobStatusApproved:
			if j.StartDate == nil {
				j.StartDate = &now
			}
		case JobStatusCompleted, JobStatusCancelled:
			if j.CompletedDate == nil {
				j.CompletedDate = &now
			}
		}
	}
	return nil
}

func (j *Job) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[Job](tx, j.ID)
	if err != nil {
		return err
	}
	if stored.Status != JobStatusDraft {
		return utils.NewPermissionDeniedError(
			"only a draft job can be deleted, %s is %s", stored.JobNumber, stored.Status)
	}
	return nil
}

func (e *Estimate) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[Estimate](tx, e.ID)
	if err != nil {
		return err
	}

	supersededById := e.SupersededById

	e.EstimateNumber = stored.EstimateNumber
	e.RevisionNumber = stored.RevisionNumber
	e.CreatedAt = stored.CreatedAt
	e.SentDate = stored.SentDate
	e.ClosedDate = stored.ClosedDate
	e.SupersededById = stored.SupersededById

	if e.Status != stored.Status {
		if err := estimateTransitions.Validate("estimate", stored.Status, e.Status); err != nil {
			return err
		}
		now := time.Now()
		if e.Status == EstimateStatusOpen {
			if e.SentDate == nil {
				e.SentDate = &now
			}
			if e.ExpirationDate == nil {
				expiration := now.AddDate(0, 0, estimateValidityDays(tx.Statement.Context))
				e.ExpirationDate = &expiration
			}
		}
		if estimateTransitions.IsTerminal(e.Status) && e.ClosedDate == nil {
			e.ClosedDate = &now
		}
		// the replacement pointer only moves when a revision supersedes
		if e.Status == EstimateStatusSuperseded {
			e.SupersededById = supersededById
		}
	}
	return nil
}

func (e *Estimate) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[Estimate](tx, e.ID)
	if err != nil {
		return err
	}
	if stored.Status != EstimateStatusDraft {
		return utils.NewPermissionDeniedError(
			"only a draft estimate can be deleted, %s is %s", stored.EstimateNumber, stored.Status)
	}
	return nil
}

func (w *WorkOrder) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[WorkOrder](tx, w.ID)
	if err != nil {
		return err
	}

	w.CreatedAt = stored.CreatedAt
	w.CompletedDate = stored.CompletedDate

	if w.Status != stored.Status {
		if err := workOrderTransitions.Validate("work order", stored.Status, w.Status); err != nil {
			return err
		}
		if w.Status == WorkOrderStatusComplete && w.CompletedDate == nil {
			now := time.Now()
			w.CompletedDate = &now
		}
	}
	return nil
}

func (w *WorkOrder) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[WorkOrder](tx, w.ID)
	if err != nil {
		return err
	}
	if stored.Status != WorkOrderStatusDraft {
		return utils.NewPermissionDeniedError(
			"only a draft work order can be deleted, current status is %s", stored.Status)
	}
	return nil
}

func (i *Invoice) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[Invoice](tx, i.ID)
	if err != nil {
		return err
	}

	i.InvoiceNumber = stored.InvoiceNumber
	i.CreatedAt = stored.CreatedAt
	i.CancelledDate = stored.CancelledDate

	if i.Status != stored.Status {
		if err := invoiceTransitions.Validate("invoice", stored.Status, i.Status); err != nil {
			return err
		}
		if i.Status == InvoiceStatusCancelled && i.CancelledDate == nil {
			now := time.Now()
			i.CancelledDate = &now
		}
	}
	return nil
}

func (i *Invoice) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[Invoice](tx, i.ID)
	if err != nil {
		return err
	}
	if stored.Status != InvoiceStatusActive {
		return utils.NewPermissionDeniedError(
			"only an active invoice can be deleted, %s is %s", stored.InvoiceNumber, stored.Status)
	}
	return nil
}

func (p *PurchaseOrder) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[PurchaseOrder](tx, p.ID)
	if err != nil {
		return err
	}

	p.PoNumber = stored.PoNumber
	p.CreatedAt = stored.CreatedAt
	p.IssuedDate = stored.IssuedDate
	p.ReceivedDate = stored.ReceivedDate
	p.CancelDate = stored.CancelDate

	if p.Status != stored.Status {
		if err := purchaseOrderTransitions.Validate("purchase order", stored.Status, p.Status); err != nil {
			return err
		}
		now := time.Now()
		switch p.Status {
		case PurchaseOrderStatusIssued:
			if p.IssuedDate == nil {
				p.IssuedDate = &now
			}
		case PurchaseOrderStatusReceivedInFull:
			if p.ReceivedDate == nil {
				p.ReceivedDate = &now
			}
		case PurchaseOrderStatusCancelled:
			if p.CancelDate == nil {
				p.CancelDate = &now
			}
		}
	}
	return nil
}

func (p *PurchaseOrder) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[PurchaseOrder](tx, p.ID)
	if err != nil {
		return err
	}
	if stored.Status != PurchaseOrderStatusDraft {
		return utils.NewPermissionDeniedError(
			"only a draft purchase order can be deleted, %s is %s", stored.PoNumber, stored.Status)
	}
	return nil
}

func (b *Bill) BeforeUpdate(tx *gorm.DB) error {
	stored, err := storedRow[Bill](tx, b.ID)
	if err != nil {
		return err
	}

	b.BillNumber = stored.BillNumber
	b.CreatedAt = stored.CreatedAt
	b.ReceivedDate = stored.ReceivedDate
	b.PaidDate = stored.PaidDate
	b.CancelledDate = stored.CancelledDate

	if b.Status != stored.Status {
		if err := billTransitions.Validate("bill", stored.Status, b.Status); err != nil {
			return err
		}
		// receiving a bill locks in the charges, so an empty one cannot move
		if stored.Status == BillStatusDraft && b.Status == BillStatusReceived {
			count, err := countLineItems(tx.Session(&gorm.Session{NewDB: true}), "bill_id", b.ID)
			if err != nil {
				return err
			}
			if count == 0 {
				return utils.NewPreconditionError(
					"bill %s cannot be received without at least one line item", stored.BillNumber)
			}
		}
		now := time.Now()
		switch b.Status {
		case BillStatusReceived:
			if b.ReceivedDate == nil {
				b.ReceivedDate = &now
			}
		case BillStatusPaidInFull:
			if b.PaidDate == nil {
				b.PaidDate = &now
			}
		case BillStatusCancelled:
			if b.CancelledDate == nil {
				b.CancelledDate = &now
			}
		}
	}
	return nil
}

func (b *Bill) BeforeDelete(tx *gorm.DB) error {
	stored, err := storedRow[Bill](tx, b.ID)
	if err != nil {
		return err
	}
	if stored.Status != BillStatusDraft {
		return utils.NewPermissionDeniedError(
			"only a draft bill can be deleted, %s is %s", stored.BillNumber, stored.Status)
	}
	return nil
}
