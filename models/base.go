package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/google/uuid"
)

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// resolveContactBusiness applies the contact/business inference rule
// shared by purchase orders and bills. Passing only a contact infers
// its business; passing both requires them to agree.
// May return RecordNotFound or PreconditionError.
func resolveContactBusiness(ctx context.Context, contactId *int, businessId *int) (*int, *int, error) {
	if contactId == nil {
		if businessId != nil {
			if err := utils.ValidateResourceId[Business](ctx, *businessId); err != nil {
				return nil, nil, err
			}
		}
		return nil, businessId, nil
	}

	contact, err := utils.FetchModel[Contact](ctx, *contactId)
	if err != nil {
		return nil, nil, err
	}

	if businessId == nil {
		if contact.BusinessId == nil {
			return nil, nil, utils.NewPreconditionError(
				"contact %q does not have a Business associated", contact.DisplayName())
		}
		return contactId, contact.BusinessId, nil
	}

	if err := utils.ValidateResourceId[Business](ctx, *businessId); err != nil {
		return nil, nil, err
	}
	if contact.BusinessId == nil {
		return nil, nil, utils.NewPreconditionError(
			"contact %q does not have a Business associated", contact.DisplayName())
	}
	if *contact.BusinessId != *businessId {
		return nil, nil, utils.NewPreconditionError(
			"contact %q belongs to a different business", contact.DisplayName())
	}
	return contactId, businessId, nil
}

// calculateDueDate derives a due date from the business's payment
// term. Nil when the contact has no business or the business carries
// no term.
func calculateDueDate(ctx context.Context, date time.Time, businessId *int) *time.Time {
	if businessId == nil {
		return nil
	}
	business, err := utils.FetchModel[Business](ctx, *businessId, "PaymentTerm")
	if err != nil || business.PaymentTerm == nil {
		return nil
	}
	dueDate := date.AddDate(0, 0, business.PaymentTerm.Days)
	return &dueDate
}
