package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateBusiness(c *gin.Context) {
	var input models.NewBusiness
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	business, err := models.CreateBusiness(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, business)
}

func UpdateBusiness(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewBusiness
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	business, err := models.UpdateBusiness(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func DeleteBusiness(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	business, err := models.DeleteBusiness(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func GetBusiness(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	business, err := models.GetBusiness(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func GetBusinesses(c *gin.Context) {
	businesses, err := models.GetBusinesses(c.Request.Context(), queryString(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}

func CreatePaymentTerm(c *gin.Context) {
	var input models.NewPaymentTerm
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	term, err := models.CreatePaymentTerm(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, term)
}

func GetPaymentTerms(c *gin.Context) {
	terms, err := models.GetPaymentTerms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, terms)
}
