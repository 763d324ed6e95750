package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

func TestWorkOrder_StatusFlowAndTaskGuard(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)
	job := seedJob(t, ctx, contact.ID)

	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{JobId: job.ID, Description: "Panel upgrade"})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}

	task, err := models.CreateTask(ctx, workOrder.ID, &models.NewTask{
		Name:   "Mount new panel",
		Units:  "hr",
		Rate:   decimal.NewFromInt(60),
		EstQty: decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Blocked and incomplete swap freely; complete is one way.
	for _, status := range []models.WorkOrderStatus{
		models.WorkOrderStatusIncomplete,
		models.WorkOrderStatusBlocked,
		models.WorkOrderStatusIncomplete,
		models.WorkOrderStatusComplete,
	} {
		if workOrder, err = models.UpdateWorkOrderStatus(ctx, workOrder.ID, status); err != nil {
			t.Fatalf("to %s: %v", status, err)
		}
	}
	if workOrder.CompletedDate == nil {
		t.Fatalf("completion must stamp completed_date")
	}
	if _, err := models.UpdateWorkOrderStatus(ctx, workOrder.ID, models.WorkOrderStatusIncomplete); err == nil {
		t.Fatalf("expected complete to be terminal")
	}

	// The task survives the whole flow.
	tasks, err := models.GetTasks(ctx, workOrder.ID)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("expected the one task, got %d", len(tasks))
	}
}

func TestTask_DeleteBlockedWhenReferenced(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)
	job := seedJob(t, ctx, contact.ID)

	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{JobId: job.ID})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	task, err := models.CreateTask(ctx, workOrder.ID, &models.NewTask{Name: "Trenching", EstQty: decimal.NewFromInt(6)})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	estimate, err := models.CreateEstimateFromWorkOrder(ctx, workOrder.ID)
	if err != nil {
		t.Fatalf("CreateEstimateFromWorkOrder: %v", err)
	}

	if _, err := models.DeleteTask(ctx, task.ID); err == nil {
		t.Fatalf("expected referenced task deletion to fail")
	} else {
		var denied *utils.PermissionDeniedError
		if !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
	}

	// Dropping the referencing line frees the task.
	lines, err := models.GetEstimateLineItems(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if _, err := models.DeleteEstimateLineItem(ctx, estimate.ID, lines[0].ID); err != nil {
		t.Fatalf("delete line: %v", err)
	}
	if _, err := models.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
}

func TestInvoice_DefaultsAndCancellation(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)

	job, err := models.CreateJob(ctx, &models.NewJob{
		ContactId:        contact.ID,
		CustomerPoNumber: "CUST-PO-77",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	invoice, err := models.CreateInvoice(ctx, &models.NewInvoice{JobId: job.ID})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.Status != models.InvoiceStatusActive {
		t.Fatalf("expected active invoice, got %s", invoice.Status)
	}
	if invoice.CustomerPoNumber != "CUST-PO-77" {
		t.Fatalf("expected customer po copied from job, got %q", invoice.CustomerPoNumber)
	}

	if _, err := models.AddInvoiceLineItem(ctx, invoice.ID, &models.NewLineItem{
		Description: "Labour",
		Qty:         decimal.NewFromInt(12),
		Price:       decimal.NewFromInt(60),
	}); err != nil {
		t.Fatalf("add line: %v", err)
	}

	invoice, err = models.UpdateInvoiceStatus(ctx, invoice.ID, models.InvoiceStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if invoice.CancelledDate == nil {
		t.Fatalf("cancellation must stamp cancelled_date")
	}

	// A cancelled invoice can no longer be deleted.
	if _, err := models.DeleteInvoice(ctx, invoice.ID); err == nil {
		t.Fatalf("expected cancelled invoice deletion to fail")
	} else {
		var denied *utils.PermissionDeniedError
		if !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
	}

	active, err := models.CreateInvoice(ctx, &models.NewInvoice{JobId: job.ID})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if _, err := models.DeleteInvoice(ctx, active.ID); err != nil {
		t.Fatalf("delete active invoice: %v", err)
	}
}
