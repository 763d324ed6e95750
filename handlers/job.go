package handlers

import (
	"net/http"

	"bitbucket.org/smallops/backoffice_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateJob(c *gin.Context) {
	var input models.NewJob
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	job, err := models.CreateJob(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func UpdateJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewJob
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	job, err := models.UpdateJob(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func UpdateJobStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.JobStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, err)
		return
	}
	job, err := models.UpdateJobStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func DeleteJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	job, err := models.DeleteJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func GetJob(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	job, err := models.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func GetJobs(c *gin.Context) {
	var status *models.JobStatus
	if v := c.Query("status"); v != "" {
		s := models.JobStatus(v)
		status = &s
	}
	jobs, err := models.GetJobs(c.Request.Context(), status, queryInt(c, "contact_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
