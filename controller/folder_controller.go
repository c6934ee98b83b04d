// api/controller/folder_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/service"
	"github.com/openparts/registry/api/util"
)

type FolderController struct {
	folderService service.IFolderService
}

func NewFolderController(folderService service.IFolderService) *FolderController {
	return &FolderController{
		folderService: folderService,
	}
}

// RegisterRoutes registers the API routes for folder management
func (fc *FolderController) RegisterRoutes(r *gin.RouterGroup) {
	folders := r.Group("/folders")
	{
		folders.POST("", fc.CreateFolder)
		folders.GET("/:id", fc.GetFolder)
		folders.PUT("/:id", fc.UpdateFolder)
		folders.DELETE("/:id", fc.DeleteFolder)
		folders.GET("/:id/entries", fc.GetContents)
		folders.POST("/:id/entries", fc.AddEntries)
		folders.DELETE("/:id/entries", fc.RemoveEntries)
		folders.POST("/:id/entries/move", fc.MoveEntries)
		folders.PUT("/:id/public", fc.SetPublicReadAccess)
	}
}

// CreateFolder endpoint
func (fc *FolderController) CreateFolder(c *gin.Context) {
	var folder model.Folder
	if err := c.ShouldBindJSON(&folder); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid folder data", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	created, err := fc.folderService.CreateFolder(c, account, folder)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create folder")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetFolder endpoint
func (fc *FolderController) GetFolder(c *gin.Context) {
	account := util.GetAccountFromContext(c)

	folder, err := fc.folderService.GetFolder(c, account, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, err, "Failed to get folder")
		return
	}

	c.JSON(http.StatusOK, folder)
}

// UpdateFolder endpoint
func (fc *FolderController) UpdateFolder(c *gin.Context) {
	var update model.FolderUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid folder data", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	updated, err := fc.folderService.UpdateFolder(c, account, c.Param("id"), update)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update folder")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteFolder endpoint
func (fc *FolderController) DeleteFolder(c *gin.Context) {
	account := util.GetAccountFromContext(c)

	if err := fc.folderService.DeleteFolder(c, account, c.Param("id")); err != nil {
		respondWithServiceError(c, err, "Failed to delete folder")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetContents endpoint
func (fc *FolderController) GetContents(c *gin.Context) {
	account := util.GetAccountFromContext(c)

	entries, err := fc.folderService.GetContents(c, account, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, err, "Failed to list folder contents")
		return
	}

	c.JSON(http.StatusOK, entries)
}

type folderEntriesRequest struct {
	EntryIDs []int64 `json:"entry_ids"`
}

// AddEntries endpoint
func (fc *FolderController) AddEntries(c *gin.Context) {
	var req folderEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id list", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := fc.folderService.AddEntries(c, account, c.Param("id"), req.EntryIDs); err != nil {
		respondWithServiceError(c, err, "Failed to add entries to folder")
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveEntries endpoint
func (fc *FolderController) RemoveEntries(c *gin.Context) {
	var req folderEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id list", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := fc.folderService.RemoveEntries(c, account, c.Param("id"), req.EntryIDs); err != nil {
		respondWithServiceError(c, err, "Failed to remove entries from folder")
		return
	}

	c.Status(http.StatusNoContent)
}

type moveEntriesRequest struct {
	DestinationFolderIDs []string `json:"destination_folder_ids"`
	EntryIDs             []int64  `json:"entry_ids"`
}

// MoveEntries endpoint
func (fc *FolderController) MoveEntries(c *gin.Context) {
	var req moveEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid move request", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := fc.folderService.MoveEntries(c, account, c.Param("id"), req.DestinationFolderIDs, req.EntryIDs); err != nil {
		respondWithServiceError(c, err, "Failed to move entries between folders")
		return
	}

	c.Status(http.StatusNoContent)
}

type publicAccessRequest struct {
	Public bool `json:"public"`
}

// SetPublicReadAccess endpoint
func (fc *FolderController) SetPublicReadAccess(c *gin.Context) {
	var req publicAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request body", registry_errors.ErrInvalidFolderData)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := fc.folderService.SetPublicReadAccess(c, account, c.Param("id"), req.Public); err != nil {
		respondWithServiceError(c, err, "Failed to change public read access")
		return
	}

	c.Status(http.StatusNoContent)
}
