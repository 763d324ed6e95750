package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Business is a company a document can be raised against: a vendor on
// the purchase side or a customer on the sales side.
type Business struct {
	ID               int          `gorm:"primary_key" json:"id"`
	Name             string       `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ReferenceCode    string       `gorm:"size:50" json:"reference_code"`
	Address          string       `gorm:"type:text" json:"address"`
	City             string       `gorm:"size:100" json:"city"`
	State            string       `gorm:"size:100" json:"state"`
	PostalCode       string       `gorm:"size:20" json:"postal_code"`
	BusinessNumber   string       `gorm:"size:100" json:"business_number"`
	TaxNumber        string       `gorm:"size:100" json:"tax_number"`
	PaymentTermId    *int         `gorm:"index;default:null" json:"payment_term_id"`
	PaymentTerm      *PaymentTerm `json:"payment_term,omitempty"`
	DefaultContactId *int         `gorm:"index;default:null" json:"default_contact_id"`
	Notes            string       `gorm:"type:text" json:"notes"`
	IsActive         *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name             string `json:"name" binding:"required"`
	ReferenceCode    string `json:"reference_code"`
	Address          string `json:"address"`
	City             string `json:"city"`
	State            string `json:"state"`
	PostalCode       string `json:"postal_code"`
	BusinessNumber   string `json:"business_number"`
	TaxNumber        string `json:"tax_number"`
	PaymentTermId    *int   `json:"payment_term_id"`
	DefaultContactId *int   `json:"default_contact_id"`
	Notes            string `json:"notes"`
}

// PaymentTerm names a net-days window used to derive bill due dates.
type PaymentTerm struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name" binding:"required"`
	Days      int       `gorm:"not null;default:0" json:"days"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPaymentTerm struct {
	Name string `json:"name" binding:"required"`
	Days int    `json:"days"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBusiness) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Business](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.PaymentTermId != nil {
		if err := utils.ValidateResourceId[PaymentTerm](ctx, *input.PaymentTermId); err != nil {
			return utils.NewValidationError("payment term not found")
		}
	}
	if input.DefaultContactId != nil {
		if err := utils.ValidateResourceId[Contact](ctx, *input.DefaultContactId); err != nil {
			return utils.NewValidationError("contact not found")
		}
	}
	return nil
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	business := Business{
		Name:             input.Name,
		ReferenceCode:    input.ReferenceCode,
		Address:          input.Address,
		City:             input.City,
		State:            input.State,
		PostalCode:       input.PostalCode,
		BusinessNumber:   input.BusinessNumber,
		TaxNumber:        input.TaxNumber,
		PaymentTermId:    input.PaymentTermId,
		DefaultContactId: input.DefaultContactId,
		Notes:            input.Notes,
		IsActive:         utils.NewTrue(),
	}

	err := db.WithContext(ctx).Create(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, id int, input *NewBusiness) (*Business, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	business, err := utils.FetchModel[Business](ctx, id)
	if err != nil {
		return nil, err
	}

	business.Name = input.Name
	business.ReferenceCode = input.ReferenceCode
	business.Address = input.Address
	business.City = input.City
	business.State = input.State
	business.PostalCode = input.PostalCode
	business.BusinessNumber = input.BusinessNumber
	business.TaxNumber = input.TaxNumber
	business.PaymentTermId = input.PaymentTermId
	business.DefaultContactId = input.DefaultContactId
	business.Notes = input.Notes

	if err := db.WithContext(ctx).Save(business).Error; err != nil {
		return nil, err
	}
	return business, nil
}

func DeleteBusiness(ctx context.Context, id int) (*Business, error) {
	db := config.GetDB()

	result, err := utils.FetchModel[Business](ctx, id)
	if err != nil {
		return nil, err
	}

	// businesses referenced by contacts or documents deactivate instead
	referenced, err := businessIsReferenced(ctx, id)
	if err != nil {
		return nil, err
	}
	if referenced {
		return ToggleActiveModel[Business](ctx, id, false)
	}

	err = db.WithContext(ctx).Delete(result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func businessIsReferenced(ctx context.Context, id int) (bool, error) {
	for _, check := range []func() (int64, error){
		func() (int64, error) { return utils.ResourceCountWhere[Contact](ctx, "business_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[PurchaseOrder](ctx, "business_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[Bill](ctx, "business_id = ?", id) },
	} {
		count, err := check()
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func GetBusiness(ctx context.Context, id int) (*Business, error) {
	return utils.FetchModel[Business](ctx, id, "PaymentTerm")
}

func GetBusinesses(ctx context.Context, name *string) ([]*Business, error) {
	db := config.GetDB()
	var results []*Business

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func CreatePaymentTerm(ctx context.Context, input *NewPaymentTerm) (*PaymentTerm, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[PaymentTerm](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	term := PaymentTerm{Name: input.Name, Days: input.Days}
	if err := db.WithContext(ctx).Create(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

func GetPaymentTerms(ctx context.Context) ([]*PaymentTerm, error) {
	return utils.FetchAllModels[PaymentTerm](ctx)
}
