package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreatePurchaseOrder(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	po, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func UpdatePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	po, err := models.UpdatePurchaseOrder(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func UpdatePurchaseOrderStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.PurchaseOrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	po, err := models.UpdatePurchaseOrderStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func DeletePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	po, err := models.DeletePurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func GetPurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	po, err := models.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func GetPurchaseOrders(c *gin.Context) {
	var status *models.PurchaseOrderStatus
	if v := c.Query("status"); v != "" {
		s := models.PurchaseOrderStatus(v)
		status = &s
	}
	pos, err := models.GetPurchaseOrders(c.Request.Context(), status,
		queryInt(c, "business_id"), queryInt(c, "job_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func AddPurchaseOrderLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewLineItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.AddPurchaseOrderLineItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func ReorderPurchaseOrderLineItem(c *gin.Context) {
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
	item, err := models.ReorderPurchaseOrderLineItem(c.Request.Context(), id, itemId, body.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeletePurchaseOrderLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemId, ok := pathId(c, "itemId")
	if !ok {
		return
	}
	item, err := models.DeletePurchaseOrderLineItem(c.Request.Context(), id, itemId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetPurchaseOrderLineItems(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	items, err := models.GetPurchaseOrderLineItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
