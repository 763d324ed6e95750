package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func GetConfiguration(c *gin.Context) {
	key := c.Param("key")
	value, found, err := models.GetConfigurationValue(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func SetConfiguration(c *gin.Context) {
	key := c.Param("key")
	var body struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	configuration, err := models.SetConfigurationValue(c.Request.Context(), key, body.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, configuration)
}

func ResetCounter(c *gin.Context) {
	docType := models.DocumentType(c.Param("docType"))
	var body struct {
		Value int64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	if err := models.ResetCounter(c.Request.Context(), docType, body.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc_type": docType, "value": body.Value})
}

func GetHistories(c *gin.Context) {
	histories, err := models.GetHistories(c.Request.Context(),
		queryInt(c, "reference_id"), queryString(c, "reference_type"), queryInt(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, histories)
}
