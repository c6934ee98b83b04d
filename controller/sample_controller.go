// api/controller/sample_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/service"
	"github.com/openparts/registry/api/util"
	helper_util "github.com/openparts/registry/api/util/helper"
)

type SampleController struct {
	sampleService  service.ISampleService
	storageService service.IStorageService
}

func NewSampleController(sampleService service.ISampleService, storageService service.IStorageService) *SampleController {
	return &SampleController{
		sampleService:  sampleService,
		storageService: storageService,
	}
}

// RegisterRoutes registers the API routes for sample and storage management
func (sc *SampleController) RegisterRoutes(r *gin.RouterGroup) {
	samples := r.Group("/samples")
	{
		samples.POST("", sc.SaveSample)
		samples.PUT("/:id", sc.SaveSample)
		samples.DELETE("/:id", sc.DeleteSample)
		samples.GET("/:id", sc.GetSample)
		samples.GET("", sc.GetSamplesByDepositor)
	}

	entries := r.Group("/entries")
	{
		entries.GET("/:id/samples", sc.GetSamplesByEntry)
	}

	storages := r.Group("/storages")
	{
		storages.POST("", sc.CreateStorage)
		storages.GET("/:id", sc.GetStorage)
		storages.GET("/:id/children", sc.GetChildren)
		storages.DELETE("/:id", sc.DeleteStorage)
	}
}

// saveSampleRequest wraps a sample with the rebuild flag callers use to
// defer reindexing during bulk imports.
type saveSampleRequest struct {
	Sample         model.Sample `json:"sample"`
	RebuildIndexes bool         `json:"rebuild_indexes"`
}

// SaveSample endpoint. Creates when no id is present, updates otherwise.
func (sc *SampleController) SaveSample(c *gin.Context) {
	var req saveSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid sample data", registry_errors.ErrInvalidSampleData)
		return
	}
	if idParam := c.Param("id"); idParam != "" {
		sampleID, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid sample id", err)
			return
		}
		req.Sample.ID = sampleID
	}
	account := util.GetAccountFromContext(c)

	if req.Sample.ID == 0 {
		created := sc.sampleService.CreateSample(account, req.Sample.EntryID, req.Sample.Label, req.Sample.Notes)
		created.StorageID = req.Sample.StorageID
		req.Sample = *created
	}

	saved, err := sc.sampleService.SaveSample(c, account, req.Sample, req.RebuildIndexes)
	if err != nil {
		respondWithServiceError(c, err, "Failed to save sample")
		return
	}

	c.JSON(http.StatusOK, saved)
}

// DeleteSample endpoint
func (sc *SampleController) DeleteSample(c *gin.Context) {
	sampleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid sample id", err)
		return
	}
	rebuild := c.DefaultQuery("rebuild_indexes", "true") == "true"
	account := util.GetAccountFromContext(c)

	if err := sc.sampleService.DeleteSample(c, account, sampleID, rebuild); err != nil {
		respondWithServiceError(c, err, "Failed to delete sample")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSample endpoint
func (sc *SampleController) GetSample(c *gin.Context) {
	sampleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid sample id", err)
		return
	}
	account := util.GetAccountFromContext(c)

	sample, err := sc.sampleService.GetSample(c, account, sampleID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to get sample")
		return
	}

	c.JSON(http.StatusOK, sample)
}

// GetSamplesByEntry endpoint
func (sc *SampleController) GetSamplesByEntry(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid entry id", err)
		return
	}
	account := util.GetAccountFromContext(c)

	samples, err := sc.sampleService.GetSamplesByEntry(c, account, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to list samples")
		return
	}

	c.JSON(http.StatusOK, samples)
}

// GetSamplesByDepositor endpoint
func (sc *SampleController) GetSamplesByDepositor(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", registry_errors.ErrInvalidPagination)
		return
	}
	account := util.GetAccountFromContext(c)
	depositor := c.DefaultQuery("depositor", account.Email)

	samples, err := sc.sampleService.GetSamplesByDepositor(c, account, depositor, offset, limit)
	if err != nil {
		respondWithServiceError(c, err, "Failed to list samples")
		return
	}

	c.JSON(http.StatusOK, samples)
}

// CreateStorage endpoint
func (sc *SampleController) CreateStorage(c *gin.Context) {
	var storage model.Storage
	if err := c.ShouldBindJSON(&storage); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid storage data", registry_errors.ErrInvalidStorageData)
		return
	}
	account := util.GetAccountFromContext(c)

	created, err := sc.storageService.CreateStorage(c, account, storage)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create storage")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetStorage endpoint
func (sc *SampleController) GetStorage(c *gin.Context) {
	storage, err := sc.storageService.GetStorage(c, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, err, "Failed to get storage")
		return
	}

	c.JSON(http.StatusOK, storage)
}

// GetChildren endpoint
func (sc *SampleController) GetChildren(c *gin.Context) {
	children, err := sc.storageService.GetChildren(c, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, err, "Failed to list storage children")
		return
	}

	c.JSON(http.StatusOK, children)
}

// DeleteStorage endpoint
func (sc *SampleController) DeleteStorage(c *gin.Context) {
	account := util.GetAccountFromContext(c)

	if err := sc.storageService.DeleteStorage(c, account, c.Param("id")); err != nil {
		respondWithServiceError(c, err, "Failed to delete storage")
		return
	}

	c.Status(http.StatusNoContent)
}
