// api/service/sample_service.go
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
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/search"
	"github.com/openparts/registry/api/util"
)

// ISampleService defines the interface for sample operations
type ISampleService interface {
	// CreateSample builds a new unsaved sample for the entry. It touches
	// no stores and checks no permissions; SaveSample does both.
	CreateSample(account model.Account, entryID int64, label, notes string) *model.Sample
	SaveSample(ctx context.Context, account model.Account, sample model.Sample, scheduleRebuild bool) (*model.Sample, error)
	DeleteSample(ctx context.Context, account model.Account, sampleID int64, scheduleRebuild bool) error
	GetSample(ctx context.Context, account model.Account, sampleID int64) (*model.Sample, error)
	GetSamplesByEntry(ctx context.Context, account model.Account, entryID int64) ([]*model.Sample, error)
	GetSamplesByDepositor(ctx context.Context, account model.Account, depositorEmail string, offset, limit int) ([]*model.Sample, error)
	HasSample(ctx context.Context, account model.Account, entryID int64) (bool, error)
}

// SampleService handles business logic for sample operations. Samples ride
// on their entry's permissions: depositing or discarding a sample requires
// write capability on the entry, not a grant on the sample.
type SampleService struct {
	sampleDAO       dao.ISampleDAO
	storageDAO      dao.IStorageDAO
	entryDAO        dao.IEntryDAO
	engine          permission.IEngine
	scheduler       search.Scheduler
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ ISampleService = &SampleService{}

// NewSampleService creates a new instance of SampleService
func NewSampleService(sampleDAO dao.ISampleDAO, storageDAO dao.IStorageDAO, entryDAO dao.IEntryDAO, engine permission.IEngine, scheduler search.Scheduler, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *SampleService {
	service := &SampleService{
		sampleDAO:       sampleDAO,
		storageDAO:      storageDAO,
		entryDAO:        entryDAO,
		engine:          engine,
		scheduler:       scheduler,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("sample.saved", service.handleSampleSaved)
	eventBus.Subscribe("sample.deleted", service.handleSampleDeleted)

	return service
}

func (s *SampleService) handleSampleSaved(ctx context.Context, event util.Event) error {
	sample := event.Payload.(model.Sample)
	logger.Info("Sample saved event received", zap.Int64("sampleID", sample.ID))

	if err := s.notificationSvc.NotifySampleChange(ctx, "saved", sample); err != nil {
		logger.Warn("Failed to send sample notification", zap.Error(err), zap.Int64("sampleID", sample.ID))
	}
	return nil
}

func (s *SampleService) handleSampleDeleted(ctx context.Context, event util.Event) error {
	sampleID := event.Payload.(int64)
	logger.Info("Sample deleted event received", zap.Int64("sampleID", sampleID))
	return nil
}

// CreateSample builds the sample in memory. The acting account becomes the
// depositor and the uuid and creation time are fixed here, so two calls
// never alias.
func (s *SampleService) CreateSample(account model.Account, entryID int64, label, notes string) *model.Sample {
	return &model.Sample{
		UUID:           uuid.New().String(),
		Label:          label,
		Notes:          notes,
		DepositorEmail: account.Email,
		EntryID:        entryID,
		CreationTime:   time.Now().UTC(),
	}
}

// SaveSample persists the sample against its entry. Requires write
// capability on the entry; being the depositor is not enough on its own.
// When scheduleRebuild is set a search index rebuild is queued after the
// save; the save itself never waits on or fails with the index.
func (s *SampleService) SaveSample(ctx context.Context, account model.Account, sample model.Sample, scheduleRebuild bool) (*model.Sample, error) {
	if err := s.validationUtil.ValidateSample(sample); err != nil {
		logger.Error("Validation for sample data failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidSampleData, err)
	}

	entry, err := s.entryDAO.GetEntry(ctx, sample.EntryID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanWrite(ctx, account, entry)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}

	if sample.ID != 0 {
		now := time.Now().UTC()
		sample.ModificationTime = &now
	}

	saved, err := s.sampleDAO.SaveSample(ctx, sample)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, "sample.saved", *saved)
	if scheduleRebuild {
		s.scheduler.ScheduleRebuild()
	}

	return saved, nil
}

// DeleteSample discards the sample. A sample sitting in a TUBE takes the
// tube with it; tubes hold exactly one sample and have no life of their
// own. Shared locations are left alone.
func (s *SampleService) DeleteSample(ctx context.Context, account model.Account, sampleID int64, scheduleRebuild bool) error {
	sample, err := s.sampleDAO.GetSample(ctx, sampleID)
	if err != nil {
		return err
	}

	entry, err := s.entryDAO.GetEntry(ctx, sample.EntryID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, entry)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	deleteStorage := false
	if sample.StorageID != "" {
		storage, err := s.storageDAO.GetStorage(ctx, sample.StorageID)
		if err != nil && err != registry_errors.ErrStorageNotFound {
			return err
		}
		if storage != nil && storage.Type == model.StorageTube {
			deleteStorage = true
		}
	}

	if err := s.sampleDAO.DeleteSample(ctx, sampleID, deleteStorage); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "sample.deleted", sampleID)
	if scheduleRebuild {
		s.scheduler.ScheduleRebuild()
	}

	return nil
}

// GetSample returns the sample when the actor can read its entry.
func (s *SampleService) GetSample(ctx context.Context, account model.Account, sampleID int64) (*model.Sample, error) {
	sample, err := s.sampleDAO.GetSample(ctx, sampleID)
	if err != nil {
		return nil, err
	}

	if err := s.requireEntryRead(ctx, account, sample.EntryID); err != nil {
		return nil, err
	}
	return sample, nil
}

func (s *SampleService) GetSamplesByEntry(ctx context.Context, account model.Account, entryID int64) ([]*model.Sample, error) {
	if err := s.requireEntryRead(ctx, account, entryID); err != nil {
		return nil, err
	}
	return s.sampleDAO.GetSamplesByEntry(ctx, entryID)
}

// GetSamplesByDepositor pages the depositor's samples. Only the depositor
// themselves or an administrator may list them.
func (s *SampleService) GetSamplesByDepositor(ctx context.Context, account model.Account, depositorEmail string, offset, limit int) ([]*model.Sample, error) {
	if limit <= 0 || offset < 0 {
		return nil, registry_errors.ErrInvalidPagination
	}
	if account.Email != depositorEmail && !account.IsAdmin {
		return nil, registry_errors.ErrPermissionDenied
	}
	return s.sampleDAO.GetSamplesByDepositor(ctx, depositorEmail, offset, limit)
}

func (s *SampleService) HasSample(ctx context.Context, account model.Account, entryID int64) (bool, error) {
	if err := s.requireEntryRead(ctx, account, entryID); err != nil {
		return false, err
	}
	return s.sampleDAO.HasSample(ctx, entryID)
}

func (s *SampleService) requireEntryRead(ctx context.Context, account model.Account, entryID int64) error {
	entry, err := s.entryDAO.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	allowed, err := s.engine.CanRead(ctx, account, entry)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}
	return nil
}
