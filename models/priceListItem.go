package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// ItemType groups catalog items (materials, labor, subcontract, ...).
type ItemType struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Taxable       *bool     `gorm:"not null;default:true" json:"taxable"`
	MappingToTask string    `gorm:"size:100" json:"mapping_to_task"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItemType struct {
	Name          string `json:"name" binding:"required"`
	Taxable       *bool  `json:"taxable"`
	MappingToTask string `json:"mapping_to_task"`
}

// PriceListItem is a catalog entry. purchase_price is the vendor-side
// cost copied into PO/Bill lines; selling_price is the customer-side
// price copied into Estimate/Invoice lines.
type PriceListItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ItemTypeId    int             `gorm:"index;not null" json:"item_type_id" binding:"required"`
	ItemType      *ItemType       `json:"item_type,omitempty"`
	Code          string          `gorm:"size:50;not null" json:"code" binding:"required"`
	Units         string          `gorm:"size:50" json:"units"`
	Description   string          `gorm:"size:255;not null" json:"description" binding:"required"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	QtyOnHand     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty_on_hand"`
	QtyOnOrder    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty_on_order"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPriceListItem struct {
	ItemTypeId    int             `json:"item_type_id" binding:"required"`
	Code          string          `json:"code" binding:"required"`
	Units         string          `json:"units"`
	Description   string          `json:"description" binding:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPriceListItem) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[ItemType](ctx, input.ItemTypeId); err != nil {
		return utils.NewValidationError("item type not found")
	}
	if err := utils.ValidateUnique[PriceListItem](ctx, "code", input.Code, id); err != nil {
		return err
	}
	if input.PurchasePrice.IsNegative() || input.SellingPrice.IsNegative() {
		return utils.NewValidationError("price cannot be negative")
	}
	return nil
}

func CreateItemType(ctx context.Context, input *NewItemType) (*ItemType, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[ItemType](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	taxable := input.Taxable
	if taxable == nil {
		taxable = utils.NewTrue()
	}
	itemType := ItemType{
		Name:          input.Name,
		Taxable:       taxable,
		MappingToTask: input.MappingToTask,
	}
	if err := db.WithContext(ctx).Create(&itemType).Error; err != nil {
		return nil, err
	}
	return &itemType, nil
}

func GetItemTypes(ctx context.Context) ([]*ItemType, error) {
	return ListAllResource[ItemType](ctx, "name")
}

func CreatePriceListItem(ctx context.Context, input *NewPriceListItem) (*PriceListItem, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	item := PriceListItem{
		ItemTypeId:    input.ItemTypeId,
		Code:          input.Code,
		Units:         input.Units,
		Description:   input.Description,
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
		IsActive:      utils.NewTrue(),
	}

	err := db.WithContext(ctx).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdatePriceListItem(ctx context.Context, id int, input *NewPriceListItem) (*PriceListItem, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[PriceListItem](ctx, id)
	if err != nil {
		return nil, err
	}

	item.ItemTypeId = input.ItemTypeId
	item.Code = input.Code
	item.Units = input.Units
	item.Description = input.Description
	item.PurchasePrice = input.PurchasePrice
	item.SellingPrice = input.SellingPrice

	if err := db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[PriceListItem](id); err != nil {
		return nil, err
	}
	return item, nil
}

// DeletePriceListItem removes the row outright only while nothing
// references it; once any line item points at it the delete becomes an
// is_active=false soft delete so existing lines keep their source.
func DeletePriceListItem(ctx context.Context, id int) (*PriceListItem, error) {
	db := config.GetDB()

	result, err := utils.FetchModel[PriceListItem](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[LineItem](ctx, "price_list_item_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return ToggleActiveModel[PriceListItem](ctx, id, false)
	}

	err = db.WithContext(ctx).Delete(result).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[PriceListItem](id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetPriceListItem(ctx context.Context, id int) (*PriceListItem, error) {
	return GetResource[PriceListItem](ctx, id)
}

func GetPriceListItems(ctx context.Context, code *string, activeOnly bool) ([]*PriceListItem, error) {
	db := config.GetDB()
	var results []*PriceListItem

	dbCtx := db.WithContext(ctx)
	if code != nil && len(*code) > 0 {
		dbCtx = dbCtx.Where("code LIKE ?", "%"+*code+"%")
	}
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	err := dbCtx.Order("code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
