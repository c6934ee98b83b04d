// api/service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/openparts/registry/api/audit"
	"github.com/openparts/registry/api/dao"
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/search"
	"github.com/openparts/registry/api/util"
)

type Services struct {
	Entry      IEntryService
	Sample     ISampleService
	Storage    IStorageService
	Folder     IFolderService
	Permission IPermissionService

	AccountDAO dao.IAccountDAO
}

func InitializeServices(
	driver neo4j.Driver,
	auditService audit.Service,
	scheduler search.Scheduler,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	entryDAO := dao.NewEntryDAO(driver, auditService)
	sampleDAO := dao.NewSampleDAO(driver, auditService)
	storageDAO := dao.NewStorageDAO(driver)
	folderDAO := dao.NewFolderDAO(driver, auditService)
	permissionDAO := dao.NewPermissionDAO(driver, auditService)
	accountDAO := dao.NewAccountDAO(driver)

	engine := permission.NewEngine(permissionDAO, accountDAO, folderDAO)

	services := &Services{
		Entry:      NewEntryService(entryDAO, permissionDAO, engine, scheduler, validationUtil, cacheService, notificationSvc, eventBus),
		Sample:     NewSampleService(sampleDAO, storageDAO, entryDAO, engine, scheduler, validationUtil, notificationSvc, eventBus),
		Storage:    NewStorageService(storageDAO, sampleDAO, validationUtil),
		Folder:     NewFolderService(folderDAO, entryDAO, permissionDAO, engine, validationUtil, cacheService, notificationSvc, eventBus),
		Permission: NewPermissionService(permissionDAO, entryDAO, folderDAO, engine, validationUtil, notificationSvc, eventBus),
		AccountDAO: accountDAO,
	}

	return services, nil
}
