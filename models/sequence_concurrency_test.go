package models_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

func TestGenerateNextNumber_UniqueUnderConcurrency(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)

	const workers = 20

	var wg sync.WaitGroup
	results := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := models.GenerateNextNumber(ctx, models.DocumentTypeJob)
			if err != nil {
				errs <- err
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("GenerateNextNumber: %v", err)
	}

	seen := make(map[string]bool)
	for number := range results {
		if seen[number] {
			t.Fatalf("duplicate number issued: %s", number)
		}
		seen[number] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d numbers, got %d", workers, len(seen))
	}

	// The counter keeps climbing after the burst.
	next, err := models.GenerateNextNumber(ctx, models.DocumentTypeJob)
	if err != nil {
		t.Fatalf("GenerateNextNumber: %v", err)
	}
	if seen[next] {
		t.Fatalf("number reused after burst: %s", next)
	}
}

func TestGenerateNextNumber_UnconfiguredSequence(t *testing.T) {
	ctx := setupIntegration(t)
	// No sequences seeded.
	_, err := models.GenerateNextNumber(ctx, models.DocumentTypeInvoice)
	if err == nil {
		t.Fatalf("expected unconfigured sequence to fail")
	}
	var confErr *utils.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestGetConfigurationValue_PropagatesDatabaseErrors(t *testing.T) {
	ctx := setupIntegration(t)

	// A dead context makes the db read fail with something other than
	// record-not-found; that must not be mistaken for a missing key.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, exists, err := models.GetConfigurationValue(cancelled, "never_configured")
	if err == nil {
		t.Fatalf("expected a database error, got exists=%v", exists)
	}
	var confErr *utils.ConfigurationError
	if errors.As(err, &confErr) {
		t.Fatalf("expected a raw database error, got %v", err)
	}
}

func TestResetCounter_RestartsNumbering(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)

	first, err := models.GenerateNextNumber(ctx, models.DocumentTypePurchaseOrder)
	if err != nil {
		t.Fatalf("GenerateNextNumber: %v", err)
	}
	if first != "PO-00001" {
		t.Fatalf("expected PO-00001, got %s", first)
	}

	if err := models.ResetCounter(ctx, models.DocumentTypePurchaseOrder, 100); err != nil {
		t.Fatalf("ResetCounter: %v", err)
	}
	next, err := models.GenerateNextNumber(ctx, models.DocumentTypePurchaseOrder)
	if err != nil {
		t.Fatalf("GenerateNextNumber: %v", err)
	}
	if next != "PO-00101" {
		t.Fatalf("expected PO-00101 after reset, got %s", next)
	}

	if err := models.ResetCounter(ctx, models.DocumentTypeBill, 5); err != nil {
		t.Fatalf("ResetCounter(bill): %v", err)
	}
	// Resetting an unconfigured counter errors instead of creating one.
	if err := models.ResetCounter(ctx, "quote", 0); err == nil {
		t.Fatalf("expected reset of unknown counter to fail")
	}
}
