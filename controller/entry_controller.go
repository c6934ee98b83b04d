// api/controller/entry_controller.go
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/service"
	"github.com/openparts/registry/api/util"
	helper_util "github.com/openparts/registry/api/util/helper"
)

type EntryController struct {
	entryService service.IEntryService
}

func NewEntryController(entryService service.IEntryService) *EntryController {
	return &EntryController{
		entryService: entryService,
	}
}

// RegisterRoutes registers the API routes for entry management
func (ec *EntryController) RegisterRoutes(r *gin.RouterGroup) {
	entries := r.Group("/entries")
	{
		entries.POST("", ec.CreateEntry)
		entries.PUT("/:id", ec.UpdateEntry)
		entries.DELETE("/:id", ec.DeleteEntry)
		entries.GET("/:id", ec.GetEntry)
		entries.GET("", ec.ListEntries)
	}
	// Separate prefix: a static segment under /entries would collide with
	// the :id wildcard in gin's router.
	r.GET("/records/:recordId", ec.GetEntryByRecordID)
}

// CreateEntry endpoint
func (ec *EntryController) CreateEntry(c *gin.Context) {
	var entry model.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry data", registry_errors.ErrInvalidEntryData)
		return
	}
	account := util.GetAccountFromContext(c)

	createdEntry, err := ec.entryService.CreateEntry(c, account, entry)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create entry")
		return
	}

	c.JSON(http.StatusCreated, createdEntry)
}

// UpdateEntry endpoint
func (ec *EntryController) UpdateEntry(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id", err)
		return
	}

	var entry model.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry data", err)
		return
	}
	entry.ID = entryID
	account := util.GetAccountFromContext(c)

	updatedEntry, err := ec.entryService.UpdateEntry(c, account, entry)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update entry")
		return
	}

	c.JSON(http.StatusOK, updatedEntry)
}

// DeleteEntry endpoint
func (ec *EntryController) DeleteEntry(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id", err)
		return
	}
	account := util.GetAccountFromContext(c)

	if err := ec.entryService.DeleteEntry(c, account, entryID); err != nil {
		respondWithServiceError(c, err, "Failed to delete entry")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEntry endpoint
func (ec *EntryController) GetEntry(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id", err)
		return
	}
	account := util.GetAccountFromContext(c)

	entry, err := ec.entryService.GetEntry(c, account, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to get entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry":                 entry,
		"preferred_part_number": ec.entryService.PreferredPartNumber(entry),
	})
}

// GetEntryByRecordID endpoint
func (ec *EntryController) GetEntryByRecordID(c *gin.Context) {
	account := util.GetAccountFromContext(c)

	entry, err := ec.entryService.GetEntryByRecordID(c, account, c.Param("recordId"))
	if err != nil {
		respondWithServiceError(c, err, "Failed to get entry")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ListEntries endpoint
func (ec *EntryController) ListEntries(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", registry_errors.ErrInvalidPagination)
		return
	}
	sortBy, ascending := helper_util.GetSortParams(c)
	account := util.GetAccountFromContext(c)

	entries, err := ec.entryService.ListEntries(c, account, model.EntryListCriteria{
		SortBy:    sortBy,
		Ascending: ascending,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, entries)
}

// respondWithServiceError maps the service error taxonomy onto HTTP status
// codes. Shared by every controller in the package.
func respondWithServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, registry_errors.ErrEntryNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Entry not found", err)
	case errors.Is(err, registry_errors.ErrSampleNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Sample not found", err)
	case errors.Is(err, registry_errors.ErrStorageNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Storage not found", err)
	case errors.Is(err, registry_errors.ErrFolderNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Folder not found", err)
	case errors.Is(err, registry_errors.ErrTargetNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Target not found", err)
	case errors.Is(err, registry_errors.ErrPermissionDenied):
		util.RespondWithError(c, http.StatusForbidden, "Permission denied", err)
	case errors.Is(err, registry_errors.ErrUnauthorized):
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, registry_errors.ErrInvalidEntryData),
		errors.Is(err, registry_errors.ErrInvalidSampleData),
		errors.Is(err, registry_errors.ErrInvalidStorageData),
		errors.Is(err, registry_errors.ErrInvalidFolderData),
		errors.Is(err, registry_errors.ErrInvalidPermissionData),
		errors.Is(err, registry_errors.ErrInvalidPagination):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, registry_errors.ErrDatabaseOperation):
		util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, registry_errors.ErrInternalServer)
	}
}
