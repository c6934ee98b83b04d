// api/service/entry_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/config"
	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/search"
	"github.com/openparts/registry/api/util"
)

// IEntryService defines the interface for entry operations
type IEntryService interface {
	CreateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error)
	UpdateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error)
	DeleteEntry(ctx context.Context, account model.Account, entryID int64) error
	GetEntry(ctx context.Context, account model.Account, entryID int64) (*model.Entry, error)
	GetEntryByRecordID(ctx context.Context, account model.Account, recordID string) (*model.Entry, error)
	ListEntries(ctx context.Context, account model.Account, criteria model.EntryListCriteria) ([]*model.Entry, error)
	PreferredPartNumber(entry *model.Entry) string
}

// EntryService handles business logic for entry operations. Every read is
// gated through the permission engine; every write requires write
// capability on the entry.
type EntryService struct {
	entryDAO        dao.IEntryDAO
	permissionDAO   dao.IPermissionDAO
	engine          permission.IEngine
	scheduler       search.Scheduler
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IEntryService = &EntryService{}

// NewEntryService creates a new instance of EntryService
func NewEntryService(entryDAO dao.IEntryDAO, permissionDAO dao.IPermissionDAO, engine permission.IEngine, scheduler search.Scheduler, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *EntryService {
	service := &EntryService{
		entryDAO:        entryDAO,
		permissionDAO:   permissionDAO,
		engine:          engine,
		scheduler:       scheduler,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	// Set up event subscriptions
	eventBus.Subscribe("entry.created", service.handleEntryCreated)
	eventBus.Subscribe("entry.updated", service.handleEntryUpdated)
	eventBus.Subscribe("entry.deleted", service.handleEntryDeleted)

	return service
}

func (s *EntryService) handleEntryCreated(ctx context.Context, event util.Event) error {
	entry := event.Payload.(model.Entry)
	logger.Info("Entry created event received", zap.Int64("entryID", entry.ID))

	if err := s.notificationSvc.NotifyEntryChange(ctx, "created", entry); err != nil {
		logger.Warn("Failed to send entry creation notification", zap.Error(err), zap.Int64("entryID", entry.ID))
	}
	return nil
}

func (s *EntryService) handleEntryUpdated(ctx context.Context, event util.Event) error {
	entry := event.Payload.(model.Entry)
	logger.Info("Entry updated event received", zap.Int64("entryID", entry.ID))

	if err := s.notificationSvc.NotifyEntryChange(ctx, "updated", entry); err != nil {
		logger.Warn("Failed to send entry update notification", zap.Error(err), zap.Int64("entryID", entry.ID))
	}
	return nil
}

func (s *EntryService) handleEntryDeleted(ctx context.Context, event util.Event) error {
	entryID := event.Payload.(int64)
	logger.Info("Entry deleted event received", zap.Int64("entryID", entryID))

	if err := s.notificationSvc.NotifyEntryChange(ctx, "deleted", model.Entry{ID: entryID}); err != nil {
		logger.Warn("Failed to send entry deletion notification", zap.Error(err), zap.Int64("entryID", entryID))
	}
	return nil
}

// CreateEntry creates a new entry owned by the acting account. The record
// id, version id and timestamps are assigned here, never taken from the
// caller. An entry arriving without a part number gets one generated from
// the configured local prefix.
func (s *EntryService) CreateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error) {
	if account.Anonymous() {
		return nil, registry_errors.ErrUnauthorized
	}

	now := time.Now().UTC()
	entry.ID = 0
	entry.RecordID = uuid.New().String()
	entry.VersionID = uuid.New().String()
	entry.CreationTime = now
	entry.ModificationTime = now
	if entry.OwnerEmail == "" {
		entry.OwnerEmail = account.Email
	}
	if entry.CreatorEmail == "" {
		entry.CreatorEmail = account.Email
	}
	if entry.Status == "" {
		entry.Status = model.StatusInProgress
	}

	if err := s.validationUtil.ValidateEntry(entry); err != nil {
		logger.Error("Validation for entry data failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidEntryData, err)
	}

	created, err := s.entryDAO.CreateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	// The local part number needs the storage-assigned id.
	if len(created.PartNumbers) == 0 {
		prefix := config.GetString("registry.partNumberPrefix")
		created.PartNumbers = []model.PartNumber{
			{PartNumber: fmt.Sprintf("%s_%06d", prefix, created.ID)},
		}
		created, err = s.entryDAO.UpdateEntry(ctx, *created)
		if err != nil {
			return nil, err
		}
	}

	if err := s.cacheService.SetEntry(ctx, *created); err != nil {
		logger.Warn("Failed to cache entry", zap.Error(err), zap.Int64("entryID", created.ID))
	}

	s.eventBus.Publish(ctx, "entry.created", *created)
	s.scheduler.ScheduleRebuild()

	return created, nil
}

// UpdateEntry replaces the entry's mutable fields and owned collections.
// The immutable identity fields always come from the stored entry, and the
// version id is reissued on every successful update.
func (s *EntryService) UpdateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error) {
	existing, err := s.entryDAO.GetEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanWrite(ctx, account, existing)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}

	entry.RecordID = existing.RecordID
	entry.CreationTime = existing.CreationTime
	entry.Creator = existing.Creator
	entry.CreatorEmail = existing.CreatorEmail
	entry.VersionID = uuid.New().String()
	entry.ModificationTime = time.Now().UTC()

	if err := s.validationUtil.ValidateEntry(entry); err != nil {
		logger.Error("Validation for entry data failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidEntryData, err)
	}

	updated, err := s.entryDAO.UpdateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetEntry(ctx, *updated); err != nil {
		logger.Warn("Failed to cache entry", zap.Error(err), zap.Int64("entryID", updated.ID))
	}

	s.eventBus.Publish(ctx, "entry.updated", *updated)
	s.scheduler.ScheduleRebuild()

	return updated, nil
}

// DeleteEntry removes the entry together with its samples, single-use
// storages, folder memberships and grants.
func (s *EntryService) DeleteEntry(ctx context.Context, account model.Account, entryID int64) error {
	existing, err := s.entryDAO.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, existing)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.entryDAO.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	if err := s.permissionDAO.RemoveGrantsForTarget(ctx, model.TargetEntry, existing.RecordID); err != nil {
		logger.Error("Failed to remove grants for deleted entry",
			zap.Error(err),
			zap.String("recordID", existing.RecordID))
	}

	if err := s.cacheService.DeleteEntry(ctx, entryID); err != nil {
		logger.Warn("Failed to evict entry from cache", zap.Error(err), zap.Int64("entryID", entryID))
	}

	s.eventBus.Publish(ctx, "entry.deleted", entryID)
	s.scheduler.ScheduleRebuild()

	return nil
}

// GetEntry returns the entry when the actor can read it.
func (s *EntryService) GetEntry(ctx context.Context, account model.Account, entryID int64) (*model.Entry, error) {
	entry, err := s.cacheService.GetEntry(ctx, entryID)
	if err != nil {
		logger.Warn("Cache lookup failed", zap.Error(err), zap.Int64("entryID", entryID))
	}
	if entry == nil {
		entry, err = s.entryDAO.GetEntry(ctx, entryID)
		if err != nil {
			return nil, err
		}
	}

	allowed, err := s.engine.CanRead(ctx, account, entry)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}
	return entry, nil
}

func (s *EntryService) GetEntryByRecordID(ctx context.Context, account model.Account, recordID string) (*model.Entry, error) {
	entry, err := s.entryDAO.GetEntryByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanRead(ctx, account, entry)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}
	return entry, nil
}

// ListEntries pages through the store and keeps only what the actor can
// read, so a page may come back shorter than the requested limit.
func (s *EntryService) ListEntries(ctx context.Context, account model.Account, criteria model.EntryListCriteria) ([]*model.Entry, error) {
	if criteria.Limit <= 0 || criteria.Offset < 0 {
		return nil, registry_errors.ErrInvalidPagination
	}
	if criteria.SortBy == "" {
		criteria.SortBy = model.SortCreated
	}

	entries, err := s.entryDAO.ListEntries(ctx, criteria)
	if err != nil {
		return nil, err
	}

	visible := make([]*model.Entry, 0, len(entries))
	for _, entry := range entries {
		allowed, err := s.engine.CanRead(ctx, account, entry)
		if err != nil {
			return nil, err
		}
		if allowed {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

// PreferredPartNumber picks the entry's display part number: the first one
// carrying this instance's configured prefix, falling back to the first
// number in stored order.
func (s *EntryService) PreferredPartNumber(entry *model.Entry) string {
	if entry == nil || len(entry.PartNumbers) == 0 {
		return ""
	}
	prefix := config.GetString("registry.partNumberPrefix")
	for _, number := range entry.PartNumbers {
		if strings.Contains(number.PartNumber, prefix) {
			return number.PartNumber
		}
	}
	return entry.PartNumbers[0].PartNumber
}
