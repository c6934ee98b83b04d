// api/service/storage_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/util"
)

// IStorageService defines the interface for storage location operations
type IStorageService interface {
	CreateStorage(ctx context.Context, account model.Account, storage model.Storage) (*model.Storage, error)
	GetStorage(ctx context.Context, storageID string) (*model.Storage, error)
	GetChildren(ctx context.Context, parentID string) ([]*model.Storage, error)
	DeleteStorage(ctx context.Context, account model.Account, storageID string) error
}

// StorageService handles business logic for physical storage locations.
// Locations are shared infrastructure: creating one requires an account,
// reading the hierarchy does not.
type StorageService struct {
	storageDAO     dao.IStorageDAO
	sampleDAO      dao.ISampleDAO
	validationUtil *util.ValidationUtil
}

var _ IStorageService = &StorageService{}

// NewStorageService creates a new instance of StorageService
func NewStorageService(storageDAO dao.IStorageDAO, sampleDAO dao.ISampleDAO, validationUtil *util.ValidationUtil) *StorageService {
	return &StorageService{
		storageDAO:     storageDAO,
		sampleDAO:      sampleDAO,
		validationUtil: validationUtil,
	}
}

func (s *StorageService) CreateStorage(ctx context.Context, account model.Account, storage model.Storage) (*model.Storage, error) {
	if account.Anonymous() {
		return nil, registry_errors.ErrUnauthorized
	}

	if storage.ID == "" {
		storage.ID = uuid.New().String()
	}
	if storage.OwnerEmail == "" {
		storage.OwnerEmail = account.Email
	}
	storage.CreatedAt = time.Now().UTC()

	if err := s.validationUtil.ValidateStorage(storage); err != nil {
		logger.Error("Validation for storage data failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidStorageData, err)
	}

	return s.storageDAO.SaveStorage(ctx, storage)
}

func (s *StorageService) GetStorage(ctx context.Context, storageID string) (*model.Storage, error) {
	return s.storageDAO.GetStorage(ctx, storageID)
}

func (s *StorageService) GetChildren(ctx context.Context, parentID string) ([]*model.Storage, error) {
	return s.storageDAO.GetChildren(ctx, parentID)
}

// DeleteStorage removes an empty storage location. A location still holding
// samples cannot be deleted.
func (s *StorageService) DeleteStorage(ctx context.Context, account model.Account, storageID string) error {
	if account.Anonymous() {
		return registry_errors.ErrUnauthorized
	}

	samples, err := s.sampleDAO.GetSamplesByStorage(ctx, storageID)
	if err != nil {
		return err
	}
	if len(samples) > 0 {
		return fmt.Errorf("%w: storage still holds %d samples", registry_errors.ErrInvalidStorageData, len(samples))
	}

	return s.storageDAO.DeleteStorage(ctx, storageID)
}
