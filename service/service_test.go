// api/service/service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openparts/registry/api/config"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/service"
	"github.com/openparts/registry/api/test/fake"
	"github.com/openparts/registry/api/util"
)

// harness wires every manager against one shared in-memory registry, the
// same way InitializeServices wires them against Neo4j.
type harness struct {
	registry  *fake.Registry
	scheduler *fake.Scheduler
	engine    *permission.Engine

	entries     service.IEntryService
	samples     service.ISampleService
	storages    service.IStorageService
	folders     service.IFolderService
	permissions service.IPermissionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.InitLogger("../logging")
	if err := config.InitConfig(); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	registry := fake.NewRegistry()
	scheduler := fake.NewScheduler()
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationSvc := util.NewNotificationService()
	eventBus := util.NewEventBus()
	engine := permission.NewEngine(registry, registry, registry)

	return &harness{
		registry:  registry,
		scheduler: scheduler,
		engine:    engine,
		entries: service.NewEntryService(
			registry, registry, engine, scheduler, validationUtil, cacheService, notificationSvc, eventBus),
		samples: service.NewSampleService(
			registry, registry, registry, engine, scheduler, validationUtil, notificationSvc, eventBus),
		storages: service.NewStorageService(registry, registry, validationUtil),
		folders: service.NewFolderService(
			registry, registry, registry, engine, validationUtil, cacheService, notificationSvc, eventBus),
		permissions: service.NewPermissionService(
			registry, registry, registry, engine, validationUtil, notificationSvc, eventBus),
	}
}

// seedEntry creates a minimal valid entry owned by the account.
func (h *harness) seedEntry(t *testing.T, account model.Account) *model.Entry {
	t.Helper()
	entry, err := h.entries.CreateEntry(context.Background(), account, model.Entry{
		Type:  model.EntryTypePlasmid,
		Names: []model.Name{{Name: "pTest"}},
	})
	assert.NoError(t, err)
	return entry
}
