package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Invoice bills the customer for a job. It is born active and the
// only move it can make is to cancelled.
type Invoice struct {
	ID               int           `gorm:"primary_key" json:"id"`
	InvoiceNumber    string        `gorm:"size:100;uniqueIndex;not null" json:"invoice_number"`
	JobId            int           `gorm:"index;not null" json:"job_id"`
	Job              *Job          `json:"job,omitempty"`
	Status           InvoiceStatus `gorm:"size:20;not null;default:active" json:"status"`
	CustomerPoNumber string        `gorm:"size:100" json:"customer_po_number"`
	Description      string        `gorm:"type:text" json:"description"`
	InvoiceDate      time.Time     `json:"invoice_date"`
	DueDate          *time.Time    `json:"due_date"`
	CancelledDate    *time.Time    `json:"cancelled_date"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	JobId            int        `json:"job_id" binding:"required"`
	InvoiceNumber    string     `json:"invoice_number"`
	CustomerPoNumber string     `json:"customer_po_number"`
	Description      string     `json:"description"`
	InvoiceDate      *time.Time `json:"invoice_date"`
	DueDate          *time.Time `json:"due_date"`
}

func (input *NewInvoice) validate(ctx context.Context, _ int) error {
	if err := utils.ValidateResourceId[Job](ctx, input.JobId); err != nil {
		return utils.NewValidationError("job not found")
	}
	return nil
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	job, err := utils.FetchModel[Job](ctx, input.JobId)
	if err != nil {
		return nil, err
	}

	invoiceNumber, err := resolveDocumentNumber[Invoice](ctx, DocumentTypeInvoice, "invoice_number", input.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	invoiceDate := time.Now()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}
	customerPoNumber := input.CustomerPoNumber
	if customerPoNumber == "" {
		customerPoNumber = job.CustomerPoNumber
	}

	invoice := Invoice{
		InvoiceNumber:    invoiceNumber,
		JobId:            input.JobId,
		Status:           InvoiceStatusActive,
		CustomerPoNumber: customerPoNumber,
		Description:      input.Description,
		InvoiceDate:      invoiceDate,
		DueDate:          input.DueDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, invoice.ID, &invoice,
		"created invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func UpdateInvoice(ctx context.Context, id int, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	oldInvoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	invoice := *oldInvoice
	invoice.JobId = input.JobId
	invoice.CustomerPoNumber = input.CustomerPoNumber
	invoice.Description = input.Description
	if input.InvoiceDate != nil {
		invoice.InvoiceDate = *input.InvoiceDate
	}
	invoice.DueDate = input.DueDate

	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, invoice.ID, oldInvoice,
		"updated invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func UpdateInvoiceStatus(ctx context.Context, id int, status InvoiceStatus) (*Invoice, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	invoice, err := utils.FetchModelForUpdate[Invoice](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldInvoice := *invoice

	invoice.Status = status
	if err := tx.Save(invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, invoice.ID, &oldInvoice,
		"invoice "+invoice.InvoiceNumber+" status "+string(oldInvoice.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func DeleteInvoice(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()

	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", id).Delete(&LineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, invoice.ID, invoice,
		"deleted invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id, "Job")
}

func GetInvoices(ctx context.Context, jobId *int, status *InvoiceStatus) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice

	dbCtx := db.WithContext(ctx)
	if jobId != nil && *jobId > 0 {
		dbCtx = dbCtx.Where("job_id = ?", *jobId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	err := dbCtx.Order("id DESC").Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
