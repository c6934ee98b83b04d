// api/controller/permission_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/service"
	"github.com/openparts/registry/api/util"
)

type PermissionController struct {
	permissionService service.IPermissionService
}

func NewPermissionController(permissionService service.IPermissionService) *PermissionController {
	return &PermissionController{
		permissionService: permissionService,
	}
}

// RegisterRoutes registers the API routes for permission management
func (pc *PermissionController) RegisterRoutes(r *gin.RouterGroup) {
	permissions := r.Group("/permissions")
	{
		permissions.POST("", pc.AddPermission)
		permissions.DELETE("", pc.RemovePermission)
		permissions.GET("", pc.GetPermissions)
	}
}

// AddPermission endpoint
func (pc *PermissionController) AddPermission(c *gin.Context) {
	var grant model.AccessPermission
	if err := c.ShouldBindJSON(&grant); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", registry_errors.ErrInvalidPermissionData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := pc.permissionService.AddPermission(c, account, grant); err != nil {
		respondWithServiceError(c, err, "Failed to add permission")
		return
	}

	c.Status(http.StatusCreated)
}

// RemovePermission endpoint
func (pc *PermissionController) RemovePermission(c *gin.Context) {
	var grant model.AccessPermission
	if err := c.ShouldBindJSON(&grant); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", registry_errors.ErrInvalidPermissionData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := pc.permissionService.RemovePermission(c, account, grant); err != nil {
		respondWithServiceError(c, err, "Failed to remove permission")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPermissions endpoint
func (pc *PermissionController) GetPermissions(c *gin.Context) {
	targetType := model.TargetType(c.Query("target_type"))
	targetID := c.Query("target_id")
	if targetID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "target_id is required", registry_errors.ErrInvalidPermissionData)
		return
	}
	account := util.GetAccountFromContext(c)

	grants, err := pc.permissionService.GetPermissions(c, account, targetType, targetID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to list permissions")
		return
	}

	c.JSON(http.StatusOK, grants)
}
