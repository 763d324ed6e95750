package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateWorkOrder(c *gin.Context) {
	var input models.NewWorkOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	workOrder, err := models.CreateWorkOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workOrder)
}

func UpdateWorkOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewWorkOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	workOrder, err := models.UpdateWorkOrder(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workOrder)
}

func UpdateWorkOrderStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.WorkOrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	workOrder, err := models.UpdateWorkOrderStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workOrder)
}

func CreateEstimateFromWorkOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	estimate, err := models.CreateEstimateFromWorkOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, estimate)
}

func DeleteWorkOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	workOrder, err := models.DeleteWorkOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workOrder)
}

func GetWorkOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	workOrder, err := models.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workOrder)
}

func GetWorkOrders(c *gin.Context) {
	var status *models.WorkOrderStatus
	if v := c.Query("status"); v != "" {
		s := models.WorkOrderStatus(v)
		status = &s
	}
	workOrders, err := models.GetWorkOrders(c.Request.Context(), queryInt(c, "job_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workOrders)
}

func CreateTask(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewTask
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	task, err := models.CreateTask(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func UpdateTask(c *gin.Context) {
	id, ok := pathId(c, "taskId")
	if !ok {
		return
	}
	var input models.NewTask
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	task, err := models.UpdateTask(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context) {
	id, ok := pathId(c, "taskId")
	if !ok {
		return
	}
	task, err := models.DeleteTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func GetTasks(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	tasks, err := models.GetTasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
