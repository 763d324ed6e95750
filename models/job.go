package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Job is the root document of a piece of work. Estimates, work
// orders and invoices all hang off a job.
type Job struct {
	ID               int        `gorm:"primary_key" json:"id"`
	JobNumber        string     `gorm:"size:100;uniqueIndex;not null" json:"job_number"`
	Status           JobStatus  `gorm:"size:20;not null;default:draft" json:"status"`
	ContactId        int        `gorm:"index;not null" json:"contact_id"`
	Contact          *Contact   `json:"contact,omitempty"`
	Description      string     `gorm:"type:text" json:"description"`
	CustomerPoNumber string     `gorm:"size:100" json:"customer_po_number"`
	DueDate          *time.Time `json:"due_date"`
	StartDate        *time.Time `json:"start_date"`
	CompletedDate    *time.Time `json:"completed_date"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJob struct {
	ContactId        int        `json:"contact_id" binding:"required"`
	JobNumber        string     `json:"job_number"`
	Description      string     `json:"description"`
	CustomerPoNumber string     `json:"customer_po_number"`
	DueDate          *time.Time `json:"due_date"`
}

func (input *NewJob) validate(ctx context.Context, _ int) error {
	if err := utils.ValidateResourceId[Contact](ctx, input.ContactId); err != nil {
		return utils.NewValidationError("contact not found")
	}
	return nil
}

func CreateJob(ctx context.Context, input *NewJob) (*Job, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	jobNumber, err := resolveDocumentNumber[Job](ctx, DocumentTypeJob, "job_number", input.JobNumber)
	if err != nil {
		return nil, err
	}

	job := Job{
		JobNumber:        jobNumber,
		Status:           JobStatusDraft,
		ContactId:        input.ContactId,
		Description:      input.Description,
		CustomerPoNumber: input.CustomerPoNumber,
		DueDate:          input.DueDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&job).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, job.ID, &job, "created job "+job.JobNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob changes the editable fields. Status and the milestone
// dates never move here; the update hook reverts any attempt.
func UpdateJob(ctx context.Context, id int, input *NewJob) (*Job, error) {
	db := config.GetDB()

	oldJob, err := utils.FetchModel[Job](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	job := *oldJob
	job.ContactId = input.ContactId
	job.Description = input.Description
	job.CustomerPoNumber = input.CustomerPoNumber
	job.DueDate = input.DueDate

	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(&job).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, job.ID, oldJob, "updated job "+job.JobNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func UpdateJobStatus(ctx context.Context, id int, status JobStatus) (*Job, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	job, err := utils.FetchModelForUpdate[Job](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldJob := *job

	job.Status = status
	if err := tx.Save(job).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, job.ID, &oldJob,
		"job "+job.JobNumber+" status "+string(oldJob.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return job, nil
}

func DeleteJob(ctx context.Context, id int) (*Job, error) {
	db := config.GetDB()

	job, err := utils.FetchModel[Job](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(job).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, job.ID, job, "deleted job "+job.JobNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return job, nil
}

func GetJob(ctx context.Context, id int) (*Job, error) {
	return utils.FetchModel[Job](ctx, id, "Contact")
}

func GetJobs(ctx context.Context, status *JobStatus, contactId *int) ([]*Job, error) {
	db := config.GetDB()
	var results []*Job

	dbCtx := db.WithContext(ctx).Preload("Contact")
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if contactId != nil && *contactId > 0 {
		dbCtx = dbCtx.Where("contact_id = ?", *contactId)
	}
	err := dbCtx.Order("id DESC").Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
