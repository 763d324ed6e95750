package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateBill(c *gin.Context) {
	var input models.NewBill
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	bill, err := models.CreateBill(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func UpdateBill(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewBill
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	bill, err := models.UpdateBill(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func UpdateBillStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.BillStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	bill, err := models.UpdateBillStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func DeleteBill(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	bill, err := models.DeleteBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func GetBill(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	bill, err := models.GetBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func GetBills(c *gin.Context) {
	var status *models.BillStatus
	if v := c.Query("status"); v != "" {
		s := models.BillStatus(v)
		status = &s
	}
	bills, err := models.GetBills(c.Request.Context(), status,
		queryInt(c, "purchase_order_id"), queryInt(c, "business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func AddBillLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewLineItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.AddBillLineItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func ReorderBillLineItem(c *gin.Context) {
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
	item, err := models.ReorderBillLineItem(c.Request.Context(), id, itemId, body.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteBillLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemId, ok := pathId(c, "itemId")
	if !ok {
		return
	}
	item, err := models.DeleteBillLineItem(c.Request.Context(), id, itemId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetBillLineItems(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	items, err := models.GetBillLineItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
