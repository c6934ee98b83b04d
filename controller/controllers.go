// api/controller/controllers.go
package controller

import "github.com/openparts/registry/api/service"

type Controllers struct {
	Entry      *EntryController
	Sample     *SampleController
	Folder     *FolderController
	Permission *PermissionController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Entry:      NewEntryController(services.Entry),
		Sample:     NewSampleController(services.Sample, services.Storage),
		Folder:     NewFolderController(services.Folder),
		Permission: NewPermissionController(services.Permission),
	}
}
