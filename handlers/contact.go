package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateContact(c *gin.Context) {
	var input models.NewContact
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	contact, err := models.CreateContact(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func UpdateContact(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewContact
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	contact, err := models.UpdateContact(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func DeleteContact(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	contact, err := models.DeleteContact(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func GetContact(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	contact, err := models.GetContact(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func GetContacts(c *gin.Context) {
	contacts, err := models.GetContacts(c.Request.Context(), queryString(c, "name"), queryInt(c, "business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}
