package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// Estimate is a priced proposal for a job. Revisions share the
// estimate number; the pair (estimate_number, revision_number) is
// unique and a superseded revision points at its replacement.
type Estimate struct {
	ID             int            `gorm:"primary_key" json:"id"`
	EstimateNumber string         `gorm:"size:100;not null;uniqueIndex:idx_estimate_revision" json:"estimate_number"`
	RevisionNumber int            `gorm:"not null;default:0;uniqueIndex:idx_estimate_revision" json:"revision_number"`
	JobId          int            `gorm:"index;not null" json:"job_id"`
	Job            *Job           `json:"job,omitempty"`
	Status         EstimateStatus `gorm:"size:20;not null;default:draft" json:"status"`
	Description    string         `gorm:"type:text" json:"description"`
	SupersededById *int           `gorm:"index;default:null" json:"superseded_by_id"`
	SentDate       *time.Time     `json:"sent_date"`
	ClosedDate     *time.Time     `json:"closed_date"`
	ExpirationDate *time.Time     `json:"expiration_date"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEstimate struct {
	JobId          int        `json:"job_id" binding:"required"`
	EstimateNumber string     `json:"estimate_number"`
	Description    string     `json:"description"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

func (input *NewEstimate) validate(ctx context.Context, _ int) error {
	if err := utils.ValidateResourceId[Job](ctx, input.JobId); err != nil {
		return utils.NewValidationError("job not found")
	}
	return nil
}

func CreateEstimate(ctx context.Context, input *NewEstimate) (*Estimate, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	estimateNumber, err := resolveDocumentNumber[Estimate](ctx, DocumentTypeEstimate, "estimate_number", input.EstimateNumber)
	if err != nil {
		return nil, err
	}

	estimate := Estimate{
		EstimateNumber: estimateNumber,
		RevisionNumber: 0,
		JobId:          input.JobId,
		Status:         EstimateStatusDraft,
		Description:    input.Description,
		ExpirationDate: input.ExpirationDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&estimate).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, estimate.ID, &estimate,
		"created estimate "+estimate.EstimateNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

func UpdateEstimate(ctx context.Context, id int, input *NewEstimate) (*Estimate, error) {
	db := config.GetDB()

	oldEstimate, err := utils.FetchModel[Estimate](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	estimate := *oldEstimate
	estimate.JobId = input.JobId
	estimate.Description = input.Description
	if input.ExpirationDate != nil {
		estimate.ExpirationDate = input.ExpirationDate
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(&estimate).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, estimate.ID, oldEstimate,
		"updated estimate "+estimate.EstimateNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

func UpdateEstimateStatus(ctx context.Context, id int, status EstimateStatus) (*Estimate, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	estimate, err := utils.FetchModelForUpdate[Estimate](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldEstimate := *estimate

	estimate.Status = status
	if err := tx.Save(estimate).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, estimate.ID, &oldEstimate,
		"estimate "+estimate.EstimateNumber+" status "+string(oldEstimate.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return estimate, nil
}

// CreateEstimateRevision supersedes an open estimate with a fresh
// draft carrying the same number, the next revision number and a copy
// of the line items.
func CreateEstimateRevision(ctx context.Context, id int) (*Estimate, error) {
	db := config.GetDB()

	original, err := utils.FetchModel[Estimate](ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != EstimateStatusOpen {
		return nil, utils.NewPreconditionError(
			"only an open estimate can be revised, current status is %s", original.Status)
	}

	tx := db.WithContext(ctx).Begin()

	var maxRevision int
	if err := tx.Model(&Estimate{}).
		Where("estimate_number = ?", original.EstimateNumber).
		Select("MAX(revision_number)").Scan(&maxRevision).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	revision := Estimate{
		EstimateNumber: original.EstimateNumber,
		RevisionNumber: maxRevision + 1,
		JobId:          original.JobId,
		Status:         EstimateStatusDraft,
		Description:    original.Description,
	}
	if err := tx.Create(&revision).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var items []LineItem
	if err := tx.Where("estimate_id = ?", original.ID).
		Order("line_number, id").Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range items {
		copied := items[i]
		copied.ID = 0
		copied.EstimateId = &revision.ID
		if err := tx.Create(&copied).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	original.Status = EstimateStatusSuperseded
	original.SupersededById = &revision.ID
	if err := tx.Save(original).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, revision.ID, &revision,
		"created revision "+revision.EstimateNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &revision, nil
}

// CreateWorkOrderFromEstimate turns the line items of an open or
// accepted estimate into the task list of a new draft work order on
// the same job.
func CreateWorkOrderFromEstimate(ctx context.Context, estimateId int) (*WorkOrder, error) {
	db := config.GetDB()

	estimate, err := utils.FetchModel[Estimate](ctx, estimateId)
	if err != nil {
		return nil, err
	}
	if estimate.Status != EstimateStatusOpen && estimate.Status != EstimateStatusAccepted {
		return nil, utils.NewPreconditionError(
			"a work order can only be created from an open or accepted estimate, current status is %s",
			estimate.Status)
	}

	tx := db.WithContext(ctx).Begin()

	workOrder := WorkOrder{
		JobId:       estimate.JobId,
		Status:      WorkOrderStatusDraft,
		Description: estimate.Description,
	}
	if err := tx.Create(&workOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var items []LineItem
	if err := tx.Where("estimate_id = ?", estimate.ID).
		Order("line_number, id").Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, item := range items {
		task := Task{
			WorkOrderId: workOrder.ID,
			Name:        item.Description,
			Units:       item.Units,
			Rate:        item.Price,
			EstQty:      item.Qty,
		}
		if err := tx.Create(&task).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := SaveHistoryCreate(tx, workOrder.ID, &workOrder,
		"created work order from estimate "+estimate.EstimateNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetWorkOrder(ctx, workOrder.ID)
}

// CreateEstimateFromWorkOrder turns the tasks of a draft work order
// into the line items of a new draft estimate on the same job.
func CreateEstimateFromWorkOrder(ctx context.Context, workOrderId int) (*Estimate, error) {
	db := config.GetDB()

	workOrder, err := utils.FetchModel[WorkOrder](ctx, workOrderId, "Tasks")
	if err != nil {
		return nil, err
	}
	if workOrder.Status != WorkOrderStatusDraft {
		return nil, utils.NewPreconditionError(
			"an estimate can only be created from a draft work order, current status is %s",
			workOrder.Status)
	}

	estimateNumber, err := GenerateNextNumber(ctx, DocumentTypeEstimate)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()

	estimate := Estimate{
		EstimateNumber: estimateNumber,
		RevisionNumber: 0,
		JobId:          workOrder.JobId,
		Status:         EstimateStatusDraft,
		Description:    workOrder.Description,
	}
	if err := tx.Create(&estimate).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i, task := range workOrder.Tasks {
		taskId := task.ID
		item := LineItem{
			EstimateId:  &estimate.ID,
			LineNumber:  i + 1,
			TaskId:      &taskId,
			Description: task.Name,
			Units:       task.Units,
			Qty:         task.EstQty,
			Price:       task.Rate,
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := SaveHistoryCreate(tx, estimate.ID, &estimate,
		"created estimate "+estimate.EstimateNumber+" from work order"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

func DeleteEstimate(ctx context.Context, id int) (*Estimate, error) {
	db := config.GetDB()

	estimate, err := utils.FetchModel[Estimate](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(estimate).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("estimate_id = ?", id).Delete(&LineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, estimate.ID, estimate,
		"deleted estimate "+estimate.EstimateNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return estimate, nil
}

func GetEstimate(ctx context.Context, id int) (*Estimate, error) {
	return utils.FetchModel[Estimate](ctx, id, "Job")
}

func GetEstimates(ctx context.Context, jobId *int, status *EstimateStatus, estimateNumber *string) ([]*Estimate, error) {
	db := config.GetDB()
	var results []*Estimate

	dbCtx := db.WithContext(ctx)
	if jobId != nil && *jobId > 0 {
		dbCtx = dbCtx.Where("job_id = ?", *jobId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if estimateNumber != nil && *estimateNumber != "" {
		dbCtx = dbCtx.Where("estimate_number = ?", *estimateNumber)
	}
	err := dbCtx.Order("estimate_number DESC, revision_number DESC").
		Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
