package models_test

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

func TestPurchaseOrder_ContactBusinessResolution(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, business := seedContact(t, ctx, true)

	// Giving only the contact infers the business.
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{ContactId: &contact.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if po.BusinessId == nil || *po.BusinessId != business.ID {
		t.Fatalf("expected inferred business %d, got %v", business.ID, po.BusinessId)
	}

	// A contact without a business cannot anchor a purchase order alone.
	loner, _ := seedContact(t, ctx, false)
	if _, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{ContactId: &loner.ID}); err == nil {
		t.Fatalf("expected contact without business to fail")
	} else {
		var precondition *utils.PreconditionError
		if !errors.As(err, &precondition) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	}

	// A contact from a different business is a mismatch.
	other, err := models.CreateBusiness(ctx, &models.NewBusiness{Name: "Other Supplies"})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	if _, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		ContactId:  &contact.ID,
		BusinessId: &other.ID,
	}); err == nil {
		t.Fatalf("expected contact/business mismatch to fail")
	}
}

func TestBill_RequiresIssuedPurchaseOrderAndLineItems(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, true)

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{ContactId: &contact.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}

	// No bills against a draft purchase order.
	if _, err := models.CreateBill(ctx, &models.NewBill{
		PurchaseOrderId: po.ID,
		ContactId:       contact.ID,
	}); err == nil {
		t.Fatalf("expected bill against draft po to fail")
	} else {
		var precondition *utils.PreconditionError
		if !errors.As(err, &precondition) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	}

	po, err = models.UpdatePurchaseOrderStatus(ctx, po.ID, models.PurchaseOrderStatusIssued)
	if err != nil {
		t.Fatalf("issue po: %v", err)
	}
	if po.IssuedDate == nil {
		t.Fatalf("issuing must stamp issued_date")
	}

	bill, err := models.CreateBill(ctx, &models.NewBill{
		PurchaseOrderId:     po.ID,
		ContactId:           contact.ID,
		VendorInvoiceNumber: "VI-1009",
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.Status != models.BillStatusDraft {
		t.Fatalf("expected draft bill, got %s", bill.Status)
	}

	// An empty bill cannot be marked received.
	if _, err := models.UpdateBillStatus(ctx, bill.ID, models.BillStatusReceived); err == nil {
		t.Fatalf("expected empty bill receive to fail")
	} else {
		var precondition *utils.PreconditionError
		if !errors.As(err, &precondition) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	}

	// The gate lives in the update hook, so a raw save cannot slip past it.
	raw := *bill
	raw.Status = models.BillStatusReceived
	if err := config.GetDB().WithContext(ctx).Save(&raw).Error; err == nil {
		t.Fatalf("expected raw empty bill receive to fail")
	} else {
		var precondition *utils.PreconditionError
		if !errors.As(err, &precondition) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	}

	if _, err := models.AddBillLineItem(ctx, bill.ID, &models.NewLineItem{
		Description: "Breaker panel",
		Qty:         decimal.NewFromInt(1),
		Price:       decimal.RequireFromString("240.00"),
	}); err != nil {
		t.Fatalf("add bill line: %v", err)
	}

	bill, err = models.UpdateBillStatus(ctx, bill.ID, models.BillStatusReceived)
	if err != nil {
		t.Fatalf("receive bill: %v", err)
	}
	if bill.ReceivedDate == nil {
		t.Fatalf("receiving must stamp received_date")
	}

	// A purchase order with bills cannot be deleted, draft gating aside.
	if _, err := models.DeletePurchaseOrder(ctx, po.ID); err == nil {
		t.Fatalf("expected po with bills deletion to fail")
	}
}

func TestBill_DueDateFromBusinessPaymentTerm(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)

	term, err := models.CreatePaymentTerm(ctx, &models.NewPaymentTerm{Name: "Net 30", Days: 30})
	if err != nil {
		t.Fatalf("CreatePaymentTerm: %v", err)
	}
	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:          "Chan Electrical",
		PaymentTermId: &term.ID,
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	contact, err := models.CreateContact(ctx, &models.NewContact{
		FirstName:  "Aye",
		BusinessId: &business.ID,
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{ContactId: &contact.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if _, err := models.UpdatePurchaseOrderStatus(ctx, po.ID, models.PurchaseOrderStatusIssued); err != nil {
		t.Fatalf("issue po: %v", err)
	}

	billDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bill, err := models.CreateBill(ctx, &models.NewBill{
		PurchaseOrderId: po.ID,
		ContactId:       contact.ID,
		BillDate:        &billDate,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.DueDate == nil {
		t.Fatalf("expected derived due_date")
	}
	expected := billDate.AddDate(0, 0, 30)
	if !bill.DueDate.Equal(expected) {
		t.Fatalf("expected due_date %s, got %s", expected, bill.DueDate)
	}

	// An explicit due date wins over the derived one.
	explicit := billDate.AddDate(0, 0, 14)
	bill2, err := models.CreateBill(ctx, &models.NewBill{
		PurchaseOrderId: po.ID,
		ContactId:       contact.ID,
		BillDate:        &billDate,
		DueDate:         &explicit,
	})
	if err != nil {
		t.Fatalf("CreateBill(explicit due): %v", err)
	}
	if bill2.DueDate == nil || !bill2.DueDate.Equal(explicit) {
		t.Fatalf("expected explicit due_date %s, got %v", explicit, bill2.DueDate)
	}
}
