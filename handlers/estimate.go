package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateEstimate(c *gin.Context) {
	var input models.NewEstimate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	estimate, err := models.CreateEstimate(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, estimate)
}

func UpdateEstimate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewEstimate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	estimate, err := models.UpdateEstimate(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func UpdateEstimateStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.EstimateStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	estimate, err := models.UpdateEstimateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func CreateEstimateRevision(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	revision, err := models.CreateEstimateRevision(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, revision)
}

func CreateWorkOrderFromEstimate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	workOrder, err := models.CreateWorkOrderFromEstimate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workOrder)
}

func DeleteEstimate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	estimate, err := models.DeleteEstimate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func GetEstimate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	estimate, err := models.GetEstimate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func GetEstimates(c *gin.Context) {
	var status *models.EstimateStatus
	if v := c.Query("status"); v != "" {
		s := models.EstimateStatus(v)
		status = &s
	}
	estimates, err := models.GetEstimates(c.Request.Context(),
		queryInt(c, "job_id"), status, queryString(c, "estimate_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimates)
}

func AddEstimateLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewLineItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.AddEstimateLineItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func ReorderEstimateLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemId, ok := pathId(c, "itemId")
	if !ok {
		return
	}
	var body struct {
		Direction models.ReorderDirection `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.ReorderEstimateLineItem(c.Request.Context(), id, itemId, body.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteEstimateLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemId, ok := pathId(c, "itemId")
	if !ok {
		return
	}
	item, err := models.DeleteEstimateLineItem(c.Request.Context(), id, itemId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetEstimateLineItems(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	items, err := models.GetEstimateLineItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
