package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// PurchaseOrder asks a vendor for goods. Either the vendor business
// or one of its contacts can be named; naming only the contact
// infers the business from the contact's attachment.
type PurchaseOrder struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	PoNumber     string              `gorm:"size:100;uniqueIndex;not null" json:"po_number"`
	Status       PurchaseOrderStatus `gorm:"size:20;not null;default:draft" json:"status"`
	JobId        *int                `gorm:"index;default:null" json:"job_id"`
	Job          *Job                `json:"job,omitempty"`
	BusinessId   *int                `gorm:"index;default:null" json:"business_id"`
	Business     *Business           `json:"business,omitempty"`
	ContactId    *int                `gorm:"index;default:null" json:"contact_id"`
	Contact      *Contact            `json:"contact,omitempty"`
	Description  string              `gorm:"type:text" json:"description"`
	OrderDate    time.Time           `json:"order_date"`
	IssuedDate   *time.Time          `json:"issued_date"`
	ReceivedDate *time.Time          `json:"received_date"`
	CancelDate   *time.Time          `json:"cancel_date"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchaseOrder struct {
	PoNumber    string     `json:"po_number"`
	JobId       *int       `json:"job_id"`
	BusinessId  *int       `json:"business_id"`
	ContactId   *int       `json:"contact_id"`
	Description string     `json:"description"`
	OrderDate   *time.Time `json:"order_date"`
}

// resolve runs the shared contact/business inference and the job
// check. May return PreconditionError.
func (input *NewPurchaseOrder) resolve(ctx context.Context) (contactId *int, businessId *int, err error) {
	if input.JobId != nil {
		if err := utils.ValidateResourceId[Job](ctx, *input.JobId); err != nil {
			return nil, nil, utils.NewValidationError("job not found")
		}
	}
	return resolveContactBusiness(ctx, input.ContactId, input.BusinessId)
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	contactId, businessId, err := input.resolve(ctx)
	if err != nil {
		return nil, err
	}

	poNumber, err := resolveDocumentNumber[PurchaseOrder](ctx, DocumentTypePurchaseOrder, "po_number", input.PoNumber)
	if err != nil {
		return nil, err
	}

	orderDate := time.Now()
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}

	po := PurchaseOrder{
		PoNumber:    poNumber,
		Status:      PurchaseOrderStatusDraft,
		JobId:       input.JobId,
		BusinessId:  businessId,
		ContactId:   contactId,
		Description: input.Description,
		OrderDate:   orderDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, po.ID, &po,
		"created purchase order "+po.PoNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func UpdatePurchaseOrder(ctx context.Context, id int, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	oldPo, err := utils.FetchModel[PurchaseOrder](ctx, id)
	if err != nil {
		return nil, err
	}
	contactId, businessId, err := input.resolve(ctx)
	if err != nil {
		return nil, err
	}

	po := *oldPo
	po.JobId = input.JobId
	po.BusinessId = businessId
	po.ContactId = contactId
	po.Description = input.Description
	if input.OrderDate != nil {
		po.OrderDate = *input.OrderDate
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(&po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, po.ID, oldPo,
		"updated purchase order "+po.PoNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func UpdatePurchaseOrderStatus(ctx context.Context, id int, status PurchaseOrderStatus) (*PurchaseOrder, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	po, err := utils.FetchModelForUpdate[PurchaseOrder](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldPo := *po

	po.Status = status
	if err := tx.Save(po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, po.ID, &oldPo,
		"purchase order "+po.PoNumber+" status "+string(oldPo.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return po, nil
}

func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	db := config.GetDB()

	po, err := utils.FetchModel[PurchaseOrder](ctx, id)
	if err != nil {
		return nil, err
	}

	// a bill keeps its purchase order for its whole life
	count, err := utils.ResourceCountWhere[Bill](ctx, "purchase_order_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewPermissionDeniedError(
			"purchase order %s has bills and cannot be deleted", po.PoNumber)
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("purchase_order_id = ?", id).Delete(&LineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, po.ID, po,
		"deleted purchase order "+po.PoNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return po, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return utils.FetchModel[PurchaseOrder](ctx, id, "Job", "Business", "Contact")
}

func GetPurchaseOrders(ctx context.Context, status *PurchaseOrderStatus, businessId *int, jobId *int) ([]*PurchaseOrder, error) {
	db := config.GetDB()
	var results []*PurchaseOrder

	dbCtx := db.WithContext(ctx).Preload("Business").Preload("Contact")
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if businessId != nil && *businessId > 0 {
		dbCtx = dbCtx.Where("business_id = ?", *businessId)
	}
	if jobId != nil && *jobId > 0 {
		dbCtx = dbCtx.Where("job_id = ?", *jobId)
	}
	err := dbCtx.Order("id DESC").Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
