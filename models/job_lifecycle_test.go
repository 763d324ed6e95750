package models_test

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

func TestJobLifecycle_MilestonesAndGuards(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)

	job := seedJob(t, ctx, contact.ID)
	if job.Status != models.JobStatusDraft {
		t.Fatalf("expected new job draft, got %s", job.Status)
	}
	if job.JobNumber == "" {
		t.Fatalf("expected generated job number")
	}
	if job.StartDate != nil || job.CompletedDate != nil {
		t.Fatalf("expected no milestones on a draft job")
	}

	// Skipping ahead is rejected before any write.
	if _, err := models.UpdateJobStatus(ctx, job.ID, models.JobStatusApproved); err == nil {
		t.Fatalf("expected draft->approved to fail")
	} else {
		var invalid *utils.InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
	}

	job, err := models.UpdateJobStatus(ctx, job.ID, models.JobStatusSubmitted)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.StartDate != nil {
		t.Fatalf("submitted must not stamp start_date")
	}

	job, err = models.UpdateJobStatus(ctx, job.ID, models.JobStatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if job.StartDate == nil {
		t.Fatalf("approval must stamp start_date")
	}
	approvedStart := *job.StartDate

	// Milestones and the document number are immutable; a tampered save
	// is silently reverted by the update hook, not rejected.
	db := config.GetDB()
	createdAt := job.CreatedAt
	tampered := *job
	tampered.JobNumber = "JOB-HACKED"
	tampered.CreatedAt = createdAt.Add(-24 * time.Hour)
	tampered.StartDate = nil
	tampered.Description = "Rewire office and panel"
	if err := db.WithContext(ctx).Save(&tampered).Error; err != nil {
		t.Fatalf("tampered save: %v", err)
	}
	job, err = models.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.JobNumber == "JOB-HACKED" {
		t.Fatalf("job_number must be immutable")
	}
	if job.StartDate == nil || !job.StartDate.Equal(approvedStart) {
		t.Fatalf("start_date must survive a tampered save")
	}
	if !job.CreatedAt.Equal(createdAt) {
		t.Fatalf("created_at must survive a tampered save: orig=%v got=%v", createdAt, job.CreatedAt)
	}
	if job.Description != "Rewire office and panel" {
		t.Fatalf("legitimate field edits must go through: %q", job.Description)
	}

	job, err = models.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.CompletedDate == nil {
		t.Fatalf("completion must stamp completed_date")
	}
	if !job.StartDate.Equal(approvedStart) {
		t.Fatalf("completing must not restamp start_date")
	}

	// Completed is terminal.
	if _, err := models.UpdateJobStatus(ctx, job.ID, models.JobStatusDraft); err == nil {
		t.Fatalf("expected terminal state to reject changes")
	} else {
		var terminal *utils.TerminalStateError
		if !errors.As(err, &terminal) {
			t.Fatalf("expected TerminalStateError, got %v", err)
		}
	}
}

func TestJobDelete_DraftOnly(t *testing.T) {
	ctx := setupIntegration(t)
	seedSequences(t, ctx)
	contact, _ := seedContact(t, ctx, false)

	// A job that has left draft can never be deleted.
	submitted := seedJob(t, ctx, contact.ID)
	if _, err := models.UpdateJobStatus(ctx, submitted.ID, models.JobStatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := models.DeleteJob(ctx, submitted.ID); err == nil {
		t.Fatalf("expected submitted job deletion to fail")
	} else {
		var denied *utils.PermissionDeniedError
		if !errors.As(err, &denied) {
			t.Fatalf("expected PermissionDeniedError, got %v", err)
		}
	}

	draft := seedJob(t, ctx, contact.ID)
	if _, err := models.DeleteJob(ctx, draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := models.GetJob(ctx, draft.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected record not found after delete, got %v", err)
	}
}
