package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LineItem is a priced row belonging to exactly one parent document.
// One of the four parent FKs is set; the others stay null. line_number
// runs 1..N per parent with no gaps.
type LineItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EstimateId      *int            `gorm:"index;default:null" json:"estimate_id"`
	InvoiceId       *int            `gorm:"index;default:null" json:"invoice_id"`
	PurchaseOrderId *int            `gorm:"index;default:null" json:"purchase_order_id"`
	BillId          *int            `gorm:"index;default:null" json:"bill_id"`
	LineNumber      int             `gorm:"not null" json:"line_number"`
	PriceListItemId *int            `gorm:"index;default:null" json:"price_list_item_id"`
	TaskId          *int            `gorm:"index;default:null" json:"task_id"`
	Description     string          `gorm:"size:255;not null" json:"description"`
	Units           string          `gorm:"size:50" json:"units"`
	Qty             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalAmount is derived at read time, never stored.
func (li LineItem) TotalAmount() decimal.Decimal {
	return li.Qty.Mul(li.Price)
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	type alias LineItem
	return json.Marshal(struct {
		alias
		TotalAmount decimal.Decimal `json:"total_amount"`
	}{
		alias:       alias(li),
		TotalAmount: li.TotalAmount(),
	})
}

type NewLineItem struct {
	PriceListItemId *int            `json:"price_list_item_id"`
	TaskId          *int            `json:"task_id"`
	Description     string          `json:"description"`
	Units           string          `json:"units"`
	Qty             decimal.Decimal `json:"qty" binding:"required"`
	Price           decimal.Decimal `json:"price"`
}

// lineItemParent is the only thing the container knows about a
// document: which FK column points at it, what status it is in, and
// which catalog price its lines copy.
type lineItemParent struct {
	doc          string // user-facing name, e.g. "purchase order"
	table        string
	column       string
	id           int
	status       string
	initial      string
	purchaseSide bool
}

func (p lineItemParent) inInitialStatus() bool {
	return p.status == p.initial
}

// lock the parent row so concurrent add/delete/reorder on the same
// document serialize within one transaction. The status is refreshed
// from the locked row so gates run against the committed value, not a
// read taken before the transaction opened.
func (p *lineItemParent) lockRow(tx *gorm.DB) error {
	var status string
	err := tx.Table(p.table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", p.id).Select("status").Scan(&status).Error
	if err != nil {
		return err
	}
	p.status = status
	return nil
}

func (p lineItemParent) siblings(tx *gorm.DB, forUpdate bool) ([]LineItem, error) {
	var items []LineItem
	dbCtx := tx.Where(p.column+" = ?", p.id).Order("line_number, id")
	if forUpdate {
		dbCtx = dbCtx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := dbCtx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (p lineItemParent) setParentFK(item *LineItem) {
	switch p.column {
	case "estimate_id":
		item.EstimateId = &p.id
	case "invoice_id":
		item.InvoiceId = &p.id
	case "purchase_order_id":
		item.PurchaseOrderId = &p.id
	case "bill_id":
		item.BillId = &p.id
	}
}

// addLineItem appends a row at line_number = max+1. The catalog path
// copies description/units and the side-appropriate price at insert
// time; the manual path takes the given fields as-is.
func addLineItem(ctx context.Context, p *lineItemParent, input *NewLineItem) (*LineItem, error) {
	db := config.GetDB()

	if input.PriceListItemId != nil && input.TaskId != nil {
		return nil, utils.NewValidationError("a line item cannot reference both a task and a price list item")
	}
	if input.Qty.IsNegative() || input.Price.IsNegative() {
		return nil, utils.NewValidationError("qty and price cannot be negative")
	}

	item := LineItem{
		PriceListItemId: input.PriceListItemId,
		TaskId:          input.TaskId,
		Description:     input.Description,
		Units:           input.Units,
		Qty:             input.Qty,
		Price:           input.Price,
	}
	p.setParentFK(&item)

	if input.PriceListItemId != nil {
		catalogItem, err := GetPriceListItem(ctx, *input.PriceListItemId)
		if err != nil {
			return nil, utils.NewValidationError("price list item not found")
		}
		if catalogItem.IsActive != nil && !*catalogItem.IsActive {
			return nil, utils.NewValidationError("price list item %q is no longer active", catalogItem.Code)
		}
		item.Description = catalogItem.Description
		item.Units = catalogItem.Units
		if p.purchaseSide {
			item.Price = catalogItem.PurchasePrice
		} else {
			item.Price = catalogItem.SellingPrice
		}
	} else if item.Description == "" {
		return nil, utils.NewValidationError("description is required for a manual line item")
	}

	tx := db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.lockRow(tx); err != nil {
		return nil, err
	}

	var maxLine *int
	if err := tx.Model(&LineItem{}).Where(p.column+" = ?", p.id).
		Select("MAX(line_number)").Scan(&maxLine).Error; err != nil {
		return nil, err
	}
	item.LineNumber = 1
	if maxLine != nil {
		item.LineNumber = *maxLine + 1
	}

	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// reorderLineItem swaps line numbers with the neighbor in the given
// direction. Only allowed while the parent sits in its initial status.
func reorderLineItem(ctx context.Context, p *lineItemParent, itemID int, direction ReorderDirection) (*LineItem, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.lockRow(tx); err != nil {
		return nil, err
	}
	if !p.inInitialStatus() {
		return nil, utils.NewPreconditionError(
			"line items can only be reordered while the %s is %s, current status is %s",
			p.doc, p.initial, p.status)
	}
	items, err := p.siblings(tx, true)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, item := range items {
		if item.ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, utils.ErrorRecordNotFound
	}

	var neighbor int
	switch direction {
	case ReorderDirectionUp:
		neighbor = index - 1
		if neighbor < 0 {
			return nil, utils.NewValidationError("line item is already first and cannot move up")
		}
	case ReorderDirectionDown:
		neighbor = index + 1
		if neighbor >= len(items) {
			return nil, utils.NewValidationError("line item is already last and cannot move down")
		}
	default:
		return nil, utils.NewValidationError("invalid direction")
	}

	target := items[index]
	other := items[neighbor]
	target.LineNumber, other.LineNumber = other.LineNumber, target.LineNumber

	if err := tx.Model(&LineItem{}).Where("id = ?", target.ID).
		UpdateColumn("line_number", target.LineNumber).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&LineItem{}).Where("id = ?", other.ID).
		UpdateColumn("line_number", other.LineNumber).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &target, nil
}

// deleteLineItem removes a row and closes the gap: every sibling with a
// higher line_number shifts down by one, all in one transaction.
func deleteLineItem(ctx context.Context, p *lineItemParent, itemID int) (*LineItem, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.lockRow(tx); err != nil {
		return nil, err
	}

	var item LineItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(p.column+" = ? AND id = ?", p.id, itemID).First(&item).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := tx.Delete(&item).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&LineItem{}).
		Where(p.column+" = ? AND line_number > ?", p.id, item.LineNumber).
		UpdateColumn("line_number", gorm.Expr("line_number - 1")).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func listLineItems(ctx context.Context, p *lineItemParent) ([]*LineItem, error) {
	db := config.GetDB()
	var results []*LineItem
	err := db.WithContext(ctx).Where(p.column+" = ?", p.id).
		Order("line_number, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func countLineItems(tx *gorm.DB, column string, parentID int) (int64, error) {
	var count int64
	err := tx.Model(&LineItem{}).Where(column+" = ?", parentID).Count(&count).Error
	return count, err
}

/* per-document entry points */

func purchaseOrderLineItemParent(ctx context.Context, id int) (*lineItemParent, error) {
	po, err := utils.FetchModel[PurchaseOrder](ctx, id)
	if err != nil {
		return nil, err
	}
	return &lineItemParent{
		doc:          "purchase order",
		table:        "purchase_orders",
		column:       "purchase_order_id",
		id:           po.ID,
		status:       string(po.Status),
		initial:      string(PurchaseOrderStatusDraft),
		purchaseSide: true,
	}, nil
}

func billLineItemParent(ctx context.Context, id int) (*lineItemParent, error) {
	bill, err := utils.FetchModel[Bill](ctx, id)
	if err != nil {
		return nil, err
	}
	return &lineItemParent{
		doc:          "bill",
		table:        "bills",
		column:       "bill_id",
		id:           bill.ID,
		status:       string(bill.Status),
		initial:      string(BillStatusDraft),
		purchaseSide: true,
	}, nil
}

func estimateLineItemParent(ctx context.Context, id int) (*lineItemParent, error) {
	estimate, err := utils.FetchModel[Estimate](ctx, id)
	if err != nil {
		return nil, err
	}
	return &lineItemParent{
		doc:     "estimate",
		table:   "estimates",
		column:  "estimate_id",
		id:      estimate.ID,
		status:  string(estimate.Status),
		initial: string(EstimateStatusDraft),
	}, nil
}

func invoiceLineItemParent(ctx context.Context, id int) (*lineItemParent, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}
	return &lineItemParent{
		doc:     "invoice",
		table:   "invoices",
		column:  "invoice_id",
		id:      invoice.ID,
		status:  string(invoice.Status),
		initial: string(InvoiceStatusActive),
	}, nil
}

func AddPurchaseOrderLineItem(ctx context.Context, poID int, input *NewLineItem) (*LineItem, error) {
	p, err := purchaseOrderLineItemParent(ctx, poID)
	if err != nil {
		return nil, err
	}
	return addLineItem(ctx, p, input)
}

func ReorderPurchaseOrderLineItem(ctx context.Context, poID int, itemID int, direction ReorderDirection) (*LineItem, error) {
	p, err := purchaseOrderLineItemParent(ctx, poID)
	if err != nil {
		return nil, err
	}
	return reorderLineItem(ctx, p, itemID, direction)
}

func DeletePurchaseOrderLineItem(ctx context.Context, poID int, itemID int) (*LineItem, error) {
	p, err := purchaseOrderLineItemParent(ctx, poID)
	if err != nil {
		return nil, err
	}
	return deleteLineItem(ctx, p, itemID)
}

func GetPurchaseOrderLineItems(ctx context.Context, poID int) ([]*LineItem, error) {
	p, err := purchaseOrderLineItemParent(ctx, poID)
	if err != nil {
		return nil, err
	}
	return listLineItems(ctx, p)
}

func AddBillLineItem(ctx context.Context, billID int, input *NewLineItem) (*LineItem, error) {
	p, err := billLineItemParent(ctx, billID)
	if err != nil {
		return nil, err
	}
	return addLineItem(ctx, p, input)
}

func ReorderBillLineItem(ctx context.Context, billID int, itemID int, direction ReorderDirection) (*LineItem, error) {
	p, err := billLineItemParent(ctx, billID)
	if err != nil {
		return nil, err
	}
	return reorderLineItem(ctx, p, itemID, direction)
}

func DeleteBillLineItem(ctx context.Context, billID int, itemID int) (*LineItem, error) {
	p, err := billLineItemParent(ctx, billID)
	if err != nil {
		return nil, err
	}
	return deleteLineItem(ctx, p, itemID)
}

func GetBillLineItems(ctx context.Context, billID int) ([]*LineItem, error) {
	p, err := billLineItemParent(ctx, billID)
	if err != nil {
		return nil, err
	}
	return listLineItems(ctx, p)
}

func AddEstimateLineItem(ctx context.Context, estimateID int, input *NewLineItem) (*LineItem, error) {
	p, err := estimateLineItemParent(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if input.TaskId != nil {
		if err := utils.ValidateResourceId[Task](ctx, *input.TaskId); err != nil {
			return nil, utils.NewValidationError("task not found")
		}
	}
	return addLineItem(ctx, p, input)
}

func ReorderEstimateLineItem(ctx context.Context, estimateID int, itemID int, direction ReorderDirection) (*LineItem, error) {
	p, err := estimateLineItemParent(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	return reorderLineItem(ctx, p, itemID, direction)
}

func DeleteEstimateLineItem(ctx context.Context, estimateID int, itemID int) (*LineItem, error) {
	p, err := estimateLineItemParent(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	return deleteLineItem(ctx, p, itemID)
}

func GetEstimateLineItems(ctx context.Context, estimateID int) ([]*LineItem, error) {
	p, err := estimateLineItemParent(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	return listLineItems(ctx, p)
}

func AddInvoiceLineItem(ctx context.Context, invoiceID int, input *NewLineItem) (*LineItem, error) {
	p, err := invoiceLineItemParent(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return addLineItem(ctx, p, input)
}

func ReorderInvoiceLineItem(ctx context.Context, invoiceID int, itemID int, direction ReorderDirection) (*LineItem, error) {
	p, err := invoiceLineItemParent(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return reorderLineItem(ctx, p, itemID, direction)
}

func DeleteInvoiceLineItem(ctx context.Context, invoiceID int, itemID int) (*LineItem, error) {
	p, err := invoiceLineItemParent(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return deleteLineItem(ctx, p, itemID)
}

func GetInvoiceLineItems(ctx context.Context, invoiceID int) ([]*LineItem, error) {
	p, err := invoiceLineItemParent(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return listLineItems(ctx, p)
}
