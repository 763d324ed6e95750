package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Bill records what a vendor charged against a purchase order. It
// always names both the purchase order and a vendor contact, and the
// contact must carry a business.
type Bill struct {
	ID                  int            `gorm:"primary_key" json:"id"`
	BillNumber          string         `gorm:"size:100;uniqueIndex;not null" json:"bill_number"`
	Status              BillStatus     `gorm:"size:20;not null;default:draft" json:"status"`
	PurchaseOrderId     int            `gorm:"index;not null" json:"purchase_order_id"`
	PurchaseOrder       *PurchaseOrder `json:"purchase_order,omitempty"`
	ContactId           int            `gorm:"index;not null" json:"contact_id"`
	Contact             *Contact       `json:"contact,omitempty"`
	BusinessId          *int           `gorm:"index;default:null" json:"business_id"`
	Business            *Business      `json:"business,omitempty"`
	VendorInvoiceNumber string         `gorm:"size:100" json:"vendor_invoice_number"`
	Description         string         `gorm:"type:text" json:"description"`
	BillDate            time.Time      `json:"bill_date"`
	DueDate             *time.Time     `json:"due_date"`
	ReceivedDate        *time.Time     `json:"received_date"`
	PaidDate            *time.Time     `json:"paid_date"`
	CancelledDate       *time.Time     `json:"cancelled_date"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBill struct {
	PurchaseOrderId     int        `json:"purchase_order_id" binding:"required"`
	ContactId           int        `json:"contact_id" binding:"required"`
	BillNumber          string     `json:"bill_number"`
	VendorInvoiceNumber string     `json:"vendor_invoice_number"`
	Description         string     `json:"description"`
	BillDate            *time.Time `json:"bill_date"`
	DueDate             *time.Time `json:"due_date"`
}

// resolve checks the purchase order gate and the contact/business
// rule. A bill can only be cut against an issued purchase order, and
// the vendor contact must resolve to a business.
func (input *NewBill) resolve(ctx context.Context) (businessId *int, err error) {
	po, err := utils.FetchModel[PurchaseOrder](ctx, input.PurchaseOrderId)
	if err != nil {
		return nil, utils.NewValidationError("purchase order not found")
	}
	if po.Status == PurchaseOrderStatusDraft {
		return nil, utils.NewPreconditionError(
			"a bill cannot reference a draft purchase order")
	}

	contactId := input.ContactId
	_, businessId, err = resolveContactBusiness(ctx, &contactId, nil)
	return businessId, err
}

func CreateBill(ctx context.Context, input *NewBill) (*Bill, error) {
	db := config.GetDB()

	businessId, err := input.resolve(ctx)
	if err != nil {
		return nil, err
	}

	billNumber, err := resolveDocumentNumber[Bill](ctx, DocumentTypeBill, "bill_number", input.BillNumber)
	if err != nil {
		return nil, err
	}

	billDate := time.Now()
	if input.BillDate != nil {
		billDate = *input.BillDate
	}
	dueDate := input.DueDate
	if dueDate == nil {
		dueDate = calculateDueDate(ctx, billDate, businessId)
	}

	bill := Bill{
		BillNumber:          billNumber,
		Status:              BillStatusDraft,
		PurchaseOrderId:     input.PurchaseOrderId,
		ContactId:           input.ContactId,
		BusinessId:          businessId,
		VendorInvoiceNumber: input.VendorInvoiceNumber,
		Description:         input.Description,
		BillDate:            billDate,
		DueDate:             dueDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, bill.ID, &bill,
		"created bill "+bill.BillNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func UpdateBill(ctx context.Context, id int, input *NewBill) (*Bill, error) {
	db := config.GetDB()

	oldBill, err := utils.FetchModel[Bill](ctx, id)
	if err != nil {
		return nil, err
	}
	businessId, err := input.resolve(ctx)
	if err != nil {
		return nil, err
	}

	bill := *oldBill
	bill.PurchaseOrderId = input.PurchaseOrderId
	bill.ContactId = input.ContactId
	bill.BusinessId = businessId
	bill.VendorInvoiceNumber = input.VendorInvoiceNumber
	bill.Description = input.Description
	if input.BillDate != nil {
		bill.BillDate = *input.BillDate
	}
	// due date stays editable in any state
	if input.DueDate != nil {
		bill.DueDate = input.DueDate
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(&bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, bill.ID, oldBill,
		"updated bill "+bill.BillNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func UpdateBillStatus(ctx context.Context, id int, status BillStatus) (*Bill, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	bill, err := utils.FetchModelForUpdate[Bill](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldBill := *bill

	bill.Status = status
	if err := tx.Save(bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, bill.ID, &oldBill,
		"bill "+bill.BillNumber+" status "+string(oldBill.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return bill, nil
}

func DeleteBill(ctx context.Context, id int) (*Bill, error) {
	db := config.GetDB()

	bill, err := utils.FetchModel[Bill](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("bill_id = ?", id).Delete(&LineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, bill.ID, bill,
		"deleted bill "+bill.BillNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return bill, nil
}

func GetBill(ctx context.Context, id int) (*Bill, error) {
	return utils.FetchModel[Bill](ctx, id, "PurchaseOrder", "Contact", "Business")
}

func GetBills(ctx context.Context, status *BillStatus, purchaseOrderId *int, businessId *int) ([]*Bill, error) {
	db := config.GetDB()
	var results []*Bill

	dbCtx := db.WithContext(ctx).Preload("Contact").Preload("Business")
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if purchaseOrderId != nil && *purchaseOrderId > 0 {
		dbCtx = dbCtx.Where("purchase_order_id = ?", *purchaseOrderId)
	}
	if businessId != nil && *businessId > 0 {
		dbCtx = dbCtx.Where("business_id = ?", *businessId)
	}
	err := dbCtx.Order("id DESC").Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
