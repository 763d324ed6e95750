package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps the domain error types onto HTTP statuses. Every
// handler funnels its failures through here so the API surface stays
// consistent.
func respondError(c *gin.Context, err error) {
	var (
		validationErr  *utils.ValidationError
		transitionErr  *utils.InvalidTransitionError
		terminalErr    *utils.TerminalStateError
		preconditionEr *utils.PreconditionError
		permissionErr  *utils.PermissionDeniedError
		configErr      *utils.ConfigurationError
		bindingErrs    validator.ValidationErrors
	)

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &bindingErrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(bindingErrs)})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, gin.H{"error": permissionErr.Error()})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case errors.As(err, &terminalErr):
		c.JSON(http.StatusConflict, gin.H{"error": terminalErr.Error()})
	case errors.As(err, &preconditionEr):
		c.JSON(http.StatusConflict, gin.H{"error": preconditionEr.Error()})
	case errors.As(err, &configErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": configErr.Error()})
	default:
		logger := config.GetLogger()
		config.LogError(logger, "handlers", c.FullPath(), "unhandled", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	_ = c.Error(err)
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func queryString(c *gin.Context, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}
