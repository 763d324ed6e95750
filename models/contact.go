package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Contact is a person, optionally attached to a Business. Documents
// that reference a contact use the attachment to infer their business.
type Contact struct {
	ID         int       `gorm:"primary_key" json:"id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name" binding:"required"`
	LastName   string    `gorm:"size:100" json:"last_name"`
	Email      string    `gorm:"size:255" json:"email"`
	Address    string    `gorm:"type:text" json:"address"`
	City       string    `gorm:"size:100" json:"city"`
	State      string    `gorm:"size:100" json:"state"`
	PostalCode string    `gorm:"size:20" json:"postal_code"`
	MobileN    string    `gorm:"size:20" json:"mobile_n"`
	WorkN      string    `gorm:"size:20" json:"work_n"`
	HomeN      string    `gorm:"size:20" json:"home_n"`
	BusinessId *int      `gorm:"index;default:null" json:"business_id"`
	Business   *Business `json:"business,omitempty"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Contact) DisplayName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type NewContact struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	MobileN    string `json:"mobile_n"`
	WorkN      string `json:"work_n"`
	HomeN      string `json:"home_n"`
	BusinessId *int   `json:"business_id"`
	Notes      string `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewContact) validate(ctx context.Context, _ int) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email")
	}
	for _, number := range []string{input.MobileN, input.WorkN, input.HomeN} {
		if number == "" {
			continue
		}
		if err := utils.ValidatePhoneNumber(number, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number %q", number)
		}
	}
	if input.BusinessId != nil {
		if err := utils.ValidateResourceId[Business](ctx, *input.BusinessId); err != nil {
			return utils.NewValidationError("business not found")
		}
	}
	return nil
}

func CreateContact(ctx context.Context, input *NewContact) (*Contact, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	contact := Contact{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Address:    input.Address,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		MobileN:    input.MobileN,
		WorkN:      input.WorkN,
		HomeN:      input.HomeN,
		BusinessId: input.BusinessId,
		Notes:      input.Notes,
	}

	err := db.WithContext(ctx).Create(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func UpdateContact(ctx context.Context, id int, input *NewContact) (*Contact, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	contact, err := utils.FetchModel[Contact](ctx, id)
	if err != nil {
		return nil, err
	}

	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.Address = input.Address
	contact.City = input.City
	contact.State = input.State
	contact.PostalCode = input.PostalCode
	contact.MobileN = input.MobileN
	contact.WorkN = input.WorkN
	contact.HomeN = input.HomeN
	contact.BusinessId = input.BusinessId
	contact.Notes = input.Notes

	if err := db.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

func DeleteContact(ctx context.Context, id int) (*Contact, error) {
	db := config.GetDB()

	result, err := utils.FetchModel[Contact](ctx, id)
	if err != nil {
		return nil, err
	}

	// contacts referenced by documents cannot be removed
	for _, check := range []func() (int64, error){
		func() (int64, error) { return utils.ResourceCountWhere[Job](ctx, "contact_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[PurchaseOrder](ctx, "contact_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[Bill](ctx, "contact_id = ?", id) },
	} {
		count, err := check()
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewPermissionDeniedError("contact is referenced by documents and cannot be deleted")
		}
	}

	err = db.WithContext(ctx).Delete(result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetContact(ctx context.Context, id int) (*Contact, error) {
	return utils.FetchModel[Contact](ctx, id, "Business")
}

func GetContacts(ctx context.Context, name *string, businessId *int) ([]*Contact, error) {
	db := config.GetDB()
	var results []*Contact

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("first_name LIKE ? OR last_name LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	if businessId != nil && *businessId > 0 {
		dbCtx = dbCtx.Where("business_id = ?", *businessId)
	}
	err := dbCtx.Order("first_name, last_name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
