package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

func seedEstimate(t *testing.T, ctx context.Context, jobId int) *models.Estimate {
	t.Helper()
	estimate, err := models.CreateEstimate(ctx, &models.NewEstimate{JobId: jobId, Description: "Office rewire"})
	if err != nil {
		t.Fatalf("CreateEstimate: %v", err)
	}
	return estimate
}

func TestEstimateLineItems_AppendReorderDeleteRenumber(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)
	job := seedJob(t, ctx, contact.ID)
	estimate := seedEstimate(t, ctx, job.ID)

	descriptions := []string{"First fix", "Second fix", "Testing and certification"}
	for _, d := range descriptions {
		if _, err := models.AddEstimateLineItem(ctx, estimate.ID, &models.NewLineItem{
			Description: d,
			Qty:         decimal.NewFromInt(1),
			Price:       decimal.NewFromInt(100),
		}); err != nil {
			t.Fatalf("add %q: %v", d, err)
		}
	}

	assertOrder := func(expected []string) {
		t.Helper()
		items, err := models.GetEstimateLineItems(ctx, estimate.ID)
		if err != nil {
			t.Fatalf("GetEstimateLineItems: %v", err)
		}
		if len(items) != len(expected) {
			t.Fatalf("expected %d items, got %d", len(expected), len(items))
		}
		for i, item := range items {
			if item.LineNumber != i+1 {
				t.Fatalf("expected dense numbering, item %d has line_number %d", i, item.LineNumber)
			}
			if item.Description != expected[i] {
				t.Fatalf("position %d: expected %q, got %q", i, expected[i], item.Description)
			}
		}
	}
	assertOrder([]string{"First fix", "Second fix", "Testing and certification"})

	items, _ := models.GetEstimateLineItems(ctx, estimate.ID)

	// Boundary moves are rejected.
	if _, err := models.ReorderEstimateLineItem(ctx, estimate.ID, items[0].ID, models.ReorderDirectionUp); err == nil {
		t.Fatalf("expected moving the first item up to fail")
	} else {
		var validation *utils.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	}
	if _, err := models.ReorderEstimateLineItem(ctx, estimate.ID, items[2].ID, models.ReorderDirectionDown); err == nil {
		t.Fatalf("expected moving the last item down to fail")
	}

	// Adjacent swap.
	if _, err := models.ReorderEstimateLineItem(ctx, estimate.ID, items[2].ID, models.ReorderDirectionUp); err != nil {
		t.Fatalf("reorder up: %v", err)
	}
	assertOrder([]string{"First fix", "Testing and certification", "Second fix"})

	// Deleting the middle item closes the gap.
	items, _ = models.GetEstimateLineItems(ctx, estimate.ID)
	if _, err := models.DeleteEstimateLineItem(ctx, estimate.ID, items[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertOrder([]string{"First fix", "Second fix"})

	// Reordering is a drafting operation; it stops once the estimate is
	// sent out.
	if _, err := models.UpdateEstimateStatus(ctx, estimate.ID, models.EstimateStatusOpen); err != nil {
		t.Fatalf("open estimate: %v", err)
	}
	items, _ = models.GetEstimateLineItems(ctx, estimate.ID)
	if _, err := models.ReorderEstimateLineItem(ctx, estimate.ID, items[1].ID, models.ReorderDirectionUp); err == nil {
		t.Fatalf("expected reorder on an open estimate to fail")
	} else {
		var precondition *utils.PreconditionError
		if !errors.As(err, &precondition) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	}
	// Appending still works after draft.
	if _, err := models.AddEstimateLineItem(ctx, estimate.ID, &models.NewLineItem{
		Description: "Variation: extra socket",
		Qty:         decimal.NewFromInt(2),
		Price:       decimal.NewFromInt(45),
	}); err != nil {
		t.Fatalf("append after open: %v", err)
	}
	assertOrder([]string{"First fix", "Second fix", "Variation: extra socket"})
}

func TestReorderLineItem_RechecksStatusUnderLock(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)
	job := seedJob(t, ctx, contact.ID)
	estimate := seedEstimate(t, ctx, job.ID)

	for _, desc := range []string{"First fix", "Second fix"} {
		if _, err := models.AddEstimateLineItem(ctx, estimate.ID, &models.NewLineItem{
			Description: desc,
			Qty:         decimal.NewFromInt(1),
			Price:       decimal.NewFromInt(100),
		}); err != nil {
			t.Fatalf("add line: %v", err)
		}
	}
	items, err := models.GetEstimateLineItems(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("GetEstimateLineItems: %v", err)
	}

	// Hold the estimate row locked while a reorder is in flight, move the
	// estimate out of draft, then release. The reorder saw draft before
	// blocking on the lock; its gate must run against the committed open
	// status, not that earlier read.
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.Exec("SELECT id FROM estimates WHERE id = ? FOR UPDATE", estimate.ID).Error; err != nil {
		tx.Rollback()
		t.Fatalf("lock estimate: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := models.ReorderEstimateLineItem(ctx, estimate.ID, items[1].ID, models.ReorderDirectionUp)
		done <- err
	}()

	time.Sleep(300 * time.Millisecond)
	if err := tx.Exec("UPDATE estimates SET status = ? WHERE id = ?",
		string(models.EstimateStatusOpen), estimate.ID).Error; err != nil {
		tx.Rollback()
		t.Fatalf("move estimate to open: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = <-done
	if err == nil {
		t.Fatalf("expected reorder against the open estimate to fail")
	}
	var precondition *utils.PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}

	items, err = models.GetEstimateLineItems(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("GetEstimateLineItems: %v", err)
	}
	if items[0].Description != "First fix" || items[1].Description != "Second fix" {
		t.Fatalf("line order must be untouched, got %q then %q", items[0].Description, items[1].Description)
	}
}

func TestLineItems_CatalogCopySemantics(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, business := seedContact(t, ctx, true)
	job := seedJob(t, ctx, contact.ID)

	itemType, err := models.CreateItemType(ctx, &models.NewItemType{Name: "Material"})
	if err != nil {
		t.Fatalf("CreateItemType: %v", err)
	}
	cable, err := models.CreatePriceListItem(ctx, &models.NewPriceListItem{
		ItemTypeId:    itemType.ID,
		Code:          "CBL-6",
		Units:         "m",
		Description:   "Cat6 cable",
		PurchasePrice: decimal.RequireFromString("1.20"),
		SellingPrice:  decimal.RequireFromString("2.50"),
	})
	if err != nil {
		t.Fatalf("CreatePriceListItem: %v", err)
	}

	// Sales documents copy the selling price.
	estimate := seedEstimate(t, ctx, job.ID)
	sold, err := models.AddEstimateLineItem(ctx, estimate.ID, &models.NewLineItem{
		PriceListItemId: &cable.ID,
		Qty:             decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("add estimate line: %v", err)
	}
	if sold.Description != "Cat6 cable" || sold.Units != "m" {
		t.Fatalf("expected catalog description copy, got %+v", sold)
	}
	if sold.Price.Cmp(decimal.RequireFromString("2.50")) != 0 {
		t.Fatalf("expected selling price 2.50, got %s", sold.Price.String())
	}

	// Purchase documents copy the purchase price.
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		JobId:      &job.ID,
		BusinessId: &business.ID,
		ContactId:  &contact.ID,
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	bought, err := models.AddPurchaseOrderLineItem(ctx, po.ID, &models.NewLineItem{
		PriceListItemId: &cable.ID,
		Qty:             decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("add po line: %v", err)
	}
	if bought.Price.Cmp(decimal.RequireFromString("1.20")) != 0 {
		t.Fatalf("expected purchase price 1.20, got %s", bought.Price.String())
	}

	// The copy happens at insert; later catalog edits leave lines alone.
	if _, err := models.UpdatePriceListItem(ctx, cable.ID, &models.NewPriceListItem{
		ItemTypeId:    itemType.ID,
		Code:          "CBL-6",
		Units:         "m",
		Description:   "Cat6 cable",
		PurchasePrice: decimal.RequireFromString("1.80"),
		SellingPrice:  decimal.RequireFromString("3.00"),
	}); err != nil {
		t.Fatalf("UpdatePriceListItem: %v", err)
	}
	lines, err := models.GetPurchaseOrderLineItems(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrderLineItems: %v", err)
	}
	if lines[0].Price.Cmp(decimal.RequireFromString("1.20")) != 0 {
		t.Fatalf("line price must not track catalog edits, got %s", lines[0].Price.String())
	}

	// A line may reference a task or a catalog item, never both.
	taskId := 1
	if _, err := models.AddEstimateLineItem(ctx, estimate.ID, &models.NewLineItem{
		PriceListItemId: &cable.ID,
		TaskId:          &taskId,
		Qty:             decimal.NewFromInt(1),
	}); err == nil {
		t.Fatalf("expected both-references line to fail")
	}
}
