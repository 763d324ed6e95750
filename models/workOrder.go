package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// WorkOrder schedules the labour side of a job. Its tasks can be
// generated from an estimate or entered by hand.
type WorkOrder struct {
	ID            int             `gorm:"primary_key" json:"id"`
	JobId         int             `gorm:"index;not null" json:"job_id"`
	Job           *Job            `json:"job,omitempty"`
	Status        WorkOrderStatus `gorm:"size:20;not null;default:draft" json:"status"`
	Description   string          `gorm:"type:text" json:"description"`
	EstimatedTime decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimated_time"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
	CompletedDate *time.Time      `json:"completed_date"`
	Tasks         []Task          `gorm:"foreignKey:WorkOrderId" json:"tasks,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Task is one unit of work on a work order. Tasks nest one level via
// ParentTaskId.
type Task struct {
	ID           int             `gorm:"primary_key" json:"id"`
	WorkOrderId  int             `gorm:"index;not null" json:"work_order_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Units        string          `gorm:"size:50" json:"units"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	EstQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"est_qty"`
	ParentTaskId *int            `gorm:"index;default:null" json:"parent_task_id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWorkOrder struct {
	JobId         int             `json:"job_id" binding:"required"`
	Description   string          `json:"description"`
	EstimatedTime decimal.Decimal `json:"estimated_time"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
}

type NewTask struct {
	Name         string          `json:"name" binding:"required"`
	Units        string          `json:"units"`
	Rate         decimal.Decimal `json:"rate"`
	EstQty       decimal.Decimal `json:"est_qty"`
	ParentTaskId *int            `json:"parent_task_id"`
}

func (input *NewWorkOrder) validate(ctx context.Context, _ int) error {
	if err := utils.ValidateResourceId[Job](ctx, input.JobId); err != nil {
		return utils.NewValidationError("job not found")
	}
	if input.EstimatedTime.IsNegative() {
		return utils.NewValidationError("estimated_time cannot be negative")
	}
	return nil
}

func CreateWorkOrder(ctx context.Context, input *NewWorkOrder) (*WorkOrder, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	workOrder := WorkOrder{
		JobId:         input.JobId,
		Status:        WorkOrderStatusDraft,
		Description:   input.Description,
		EstimatedTime: input.EstimatedTime,
		ScheduledDate: input.ScheduledDate,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&workOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, workOrder.ID, &workOrder, "created work order"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &workOrder, nil
}

func UpdateWorkOrder(ctx context.Context, id int, input *NewWorkOrder) (*WorkOrder, error) {
	db := config.GetDB()

	oldWorkOrder, err := utils.FetchModel[WorkOrder](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	workOrder := *oldWorkOrder
	workOrder.JobId = input.JobId
	workOrder.Description = input.Description
	workOrder.EstimatedTime = input.EstimatedTime
	workOrder.ScheduledDate = input.ScheduledDate
	workOrder.Tasks = nil

	tx := db.WithContext(ctx).Begin()
	if err := tx.Omit("Tasks").Save(&workOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, workOrder.ID, oldWorkOrder, "updated work order"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &workOrder, nil
}

func UpdateWorkOrderStatus(ctx context.Context, id int, status WorkOrderStatus) (*WorkOrder, error) {
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()

	workOrder, err := utils.FetchModelForUpdate[WorkOrder](tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldWorkOrder := *workOrder

	workOrder.Status = status
	if err := tx.Omit("Tasks").Save(workOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(tx, workOrder.ID, &oldWorkOrder,
		"work order status "+string(oldWorkOrder.Status)+" to "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return workOrder, nil
}

func DeleteWorkOrder(ctx context.Context, id int) (*WorkOrder, error) {
	db := config.GetDB()

	workOrder, err := utils.FetchModel[WorkOrder](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("work_order_id = ?", id).Delete(&Task{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(workOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(tx, workOrder.ID, workOrder, "deleted work order"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return workOrder, nil
}

func GetWorkOrder(ctx context.Context, id int) (*WorkOrder, error) {
	return utils.FetchModel[WorkOrder](ctx, id, "Job", "Tasks")
}

func GetWorkOrders(ctx context.Context, jobId *int, status *WorkOrderStatus) ([]*WorkOrder, error) {
	db := config.GetDB()
	var results []*WorkOrder

	dbCtx := db.WithContext(ctx).Preload("Tasks")
	if jobId != nil && *jobId > 0 {
		dbCtx = dbCtx.Where("job_id = ?", *jobId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	err := dbCtx.Order("id DESC").Limit(config.SearchLimit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (input *NewTask) validate(ctx context.Context, workOrderId int) error {
	if input.Rate.IsNegative() || input.EstQty.IsNegative() {
		return utils.NewValidationError("rate and est_qty cannot be negative")
	}
	if input.ParentTaskId != nil {
		parent, err := utils.FetchModel[Task](ctx, *input.ParentTaskId)
		if err != nil {
			return utils.NewValidationError("parent task not found")
		}
		if parent.WorkOrderId != workOrderId {
			return utils.NewValidationError("parent task belongs to a different work order")
		}
	}
	return nil
}

func CreateTask(ctx context.Context, workOrderId int, input *NewTask) (*Task, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[WorkOrder](ctx, workOrderId); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, workOrderId); err != nil {
		return nil, err
	}

	task := Task{
		WorkOrderId:  workOrderId,
		Name:         input.Name,
		Units:        input.Units,
		Rate:         input.Rate,
		EstQty:       input.EstQty,
		ParentTaskId: input.ParentTaskId,
	}
	if err := db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func UpdateTask(ctx context.Context, id int, input *NewTask) (*Task, error) {
	db := config.GetDB()

	task, err := utils.FetchModel[Task](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, task.WorkOrderId); err != nil {
		return nil, err
	}

	task.Name = input.Name
	task.Units = input.Units
	task.Rate = input.Rate
	task.EstQty = input.EstQty
	task.ParentTaskId = input.ParentTaskId

	if err := db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func DeleteTask(ctx context.Context, id int) (*Task, error) {
	db := config.GetDB()

	task, err := utils.FetchModel[Task](ctx, id)
	if err != nil {
		return nil, err
	}

	// estimate lines may point at a task as their worksheet source
	count, err := utils.ResourceCountWhere[LineItem](ctx, "task_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewPermissionDeniedError(
			"task is referenced by estimate line items and cannot be deleted")
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&Task{}).Where("parent_task_id = ?", id).
		UpdateColumn("parent_task_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return task, nil
}

func GetTasks(ctx context.Context, workOrderId int) ([]*Task, error) {
	db := config.GetDB()
	var results []*Task

	err := db.WithContext(ctx).Where("work_order_id = ?", workOrderId).
		Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
