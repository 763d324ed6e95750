package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateInvoice(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	invoice, err := models.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func UpdateInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	invoice, err := models.UpdateInvoice(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func UpdateInvoiceStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.InvoiceStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	invoice, err := models.UpdateInvoiceStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func DeleteInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	invoice, err := models.DeleteInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func GetInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func GetInvoices(c *gin.Context) {
	var status *models.InvoiceStatus
	if v := c.Query("status"); v != "" {
		s := models.InvoiceStatus(v)
		status = &s
	}
	invoices, err := models.GetInvoices(c.Request.Context(), queryInt(c, "job_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func AddInvoiceLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewLineItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.AddInvoiceLineItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func ReorderInvoiceLineItem(c *gin.Context) {
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
	item, err := models.ReorderInvoiceLineItem(c.Request.Context(), id, itemId, body.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteInvoiceLineItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemId, ok := pathId(c, "itemId")
	if !ok {
		return
	}
	item, err := models.DeleteInvoiceLineItem(c.Request.Context(), id, itemId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetInvoiceLineItems(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	items, err := models.GetInvoiceLineItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
