// api/controller/entry_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/openparts/registry/api/controller"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/test/mock"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.Default()
}

func TestEntryController(t *testing.T) {
	logger.InitLogger("../logging")
	defer logger.Sync()

	mockEntryService := new(mock.MockEntryService)
	entryController := controller.NewEntryController(mockEntryService)
	router := setupRouter()
	api := router.Group("/")
	entryController.RegisterRoutes(api)

	t.Run("CreateEntry_Success", func(t *testing.T) {
		mockEntryService.On("CreateEntry", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(&model.Entry{ID: 1, RecordID: "rec-1", Type: model.EntryTypePlasmid}, nil).Once()

		body := strings.NewReader(`{"type":"plasmid"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/entries", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("CreateEntry_Failure_Unauthorized", func(t *testing.T) {
		mockEntryService.On("CreateEntry", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(nil, registry_errors.ErrUnauthorized).Once()

		body := strings.NewReader(`{"type":"plasmid"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/entries", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("CreateEntry_Failure_InvalidBody", func(t *testing.T) {
		body := strings.NewReader(`{not json`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/entries", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UpdateEntry_Failure_Forbidden", func(t *testing.T) {
		mockEntryService.On("UpdateEntry", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(nil, registry_errors.ErrPermissionDenied).Once()

		body := strings.NewReader(`{"type":"plasmid"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/entries/1", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GetEntry_Success", func(t *testing.T) {
		entry := &model.Entry{
			ID:          7,
			RecordID:    "rec-7",
			Type:        model.EntryTypeStrain,
			PartNumbers: []model.PartNumber{{PartNumber: "JBx_000007"}},
		}
		mockEntryService.On("GetEntry", tmock.Anything, tmock.Anything, int64(7)).
			Return(entry, nil).Once()
		mockEntryService.On("PreferredPartNumber", entry).
			Return("JBx_000007").Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/entries/7", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]json.RawMessage
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response, "entry")
		assert.JSONEq(t, `"JBx_000007"`, string(response["preferred_part_number"]))
	})

	t.Run("GetEntry_Failure_NotFound", func(t *testing.T) {
		mockEntryService.On("GetEntry", tmock.Anything, tmock.Anything, int64(404)).
			Return(nil, registry_errors.ErrEntryNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/entries/404", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GetEntry_Failure_BadID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/entries/not-a-number", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetEntryByRecordID_Success", func(t *testing.T) {
		mockEntryService.On("GetEntryByRecordID", tmock.Anything, tmock.Anything, "rec-9").
			Return(&model.Entry{ID: 9, RecordID: "rec-9"}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/records/rec-9", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DeleteEntry_Success", func(t *testing.T) {
		mockEntryService.On("DeleteEntry", tmock.Anything, tmock.Anything, int64(3)).
			Return(nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/entries/3", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("ListEntries_Success", func(t *testing.T) {
		mockEntryService.On("ListEntries", tmock.Anything, tmock.Anything, tmock.Anything).
			Return([]*model.Entry{{ID: 1}, {ID: 2}}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/entries?limit=10&offset=0", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var entries []model.Entry
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		assert.Len(t, entries, 2)
	})

	t.Run("ListEntries_Failure_BadPagination", func(t *testing.T) {
		mockEntryService.On("ListEntries", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(nil, registry_errors.ErrInvalidPagination).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/entries?limit=-5", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	mockEntryService.AssertExpectations(t)
}
