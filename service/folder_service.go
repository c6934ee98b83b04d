// api/service/folder_service.go
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
	"github.com/openparts/registry/api/util"
)

// IFolderService defines the interface for folder operations
type IFolderService interface {
	CreateFolder(ctx context.Context, account model.Account, folder model.Folder) (*model.Folder, error)
	GetFolder(ctx context.Context, account model.Account, folderID string) (*model.Folder, error)
	UpdateFolder(ctx context.Context, account model.Account, folderID string, update model.FolderUpdate) (*model.Folder, error)
	DeleteFolder(ctx context.Context, account model.Account, folderID string) error
	AddEntries(ctx context.Context, account model.Account, folderID string, entryIDs []int64) error
	RemoveEntries(ctx context.Context, account model.Account, folderID string, entryIDs []int64) error
	MoveEntries(ctx context.Context, account model.Account, sourceFolderID string, destinationFolderIDs []string, entryIDs []int64) error
	GetContents(ctx context.Context, account model.Account, folderID string) ([]*model.Entry, error)
	SetPublicReadAccess(ctx context.Context, account model.Account, folderID string, public bool) error
}

// FolderService handles business logic for folder operations, including
// mirroring folder grants onto entries for propagating folders.
type FolderService struct {
	folderDAO       dao.IFolderDAO
	entryDAO        dao.IEntryDAO
	permissionDAO   dao.IPermissionDAO
	engine          permission.IEngine
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IFolderService = &FolderService{}

// NewFolderService creates a new instance of FolderService
func NewFolderService(folderDAO dao.IFolderDAO, entryDAO dao.IEntryDAO, permissionDAO dao.IPermissionDAO, engine permission.IEngine, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *FolderService {
	service := &FolderService{
		folderDAO:       folderDAO,
		entryDAO:        entryDAO,
		permissionDAO:   permissionDAO,
		engine:          engine,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("folder.created", service.handleFolderCreated)
	eventBus.Subscribe("folder.deleted", service.handleFolderDeleted)

	return service
}

func (s *FolderService) handleFolderCreated(ctx context.Context, event util.Event) error {
	folder := event.Payload.(model.Folder)
	logger.Info("Folder created event received", zap.String("folderID", folder.ID))

	if err := s.notificationSvc.NotifyFolderChange(ctx, "created", folder); err != nil {
		logger.Warn("Failed to send folder creation notification", zap.Error(err), zap.String("folderID", folder.ID))
	}
	return nil
}

func (s *FolderService) handleFolderDeleted(ctx context.Context, event util.Event) error {
	folderID := event.Payload.(string)
	logger.Info("Folder deleted event received", zap.String("folderID", folderID))
	return nil
}

// CreateFolder creates a folder owned by the acting account. Any entry ids
// carried on the folder are added immediately; collection building does
// not gate on per-entry permissions, only folder ownership matters.
func (s *FolderService) CreateFolder(ctx context.Context, account model.Account, folder model.Folder) (*model.Folder, error) {
	if account.Anonymous() {
		return nil, registry_errors.ErrUnauthorized
	}

	now := time.Now().UTC()
	folder.ID = uuid.New().String()
	folder.OwnerEmail = account.Email
	folder.CreationTime = now
	folder.ModificationTime = now

	if err := s.validationUtil.ValidateFolder(folder); err != nil {
		logger.Error("Validation for folder data failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidFolderData, err)
	}

	entryIDs := folder.EntryIDs
	folder.EntryIDs = nil

	created, err := s.folderDAO.CreateFolder(ctx, folder)
	if err != nil {
		return nil, err
	}

	if len(entryIDs) > 0 {
		if err := s.folderDAO.AddEntries(ctx, created.ID, entryIDs); err != nil {
			return nil, err
		}
		created.EntryIDs = entryIDs
	}

	if err := s.cacheService.SetFolder(ctx, *created); err != nil {
		logger.Warn("Failed to cache folder", zap.Error(err), zap.String("folderID", created.ID))
	}

	s.eventBus.Publish(ctx, "folder.created", *created)
	return created, nil
}

// GetFolder returns the folder with its ordered entry ids when the actor
// can read it.
func (s *FolderService) GetFolder(ctx context.Context, account model.Account, folderID string) (*model.Folder, error) {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanRead(ctx, account, folder)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}
	return folder, nil
}

// UpdateFolder applies the given field changes. Turning the propagate flag
// on pushes the folder's current grants onto every contained entry right
// away; turning it off leaves previously mirrored grants in place.
func (s *FolderService) UpdateFolder(ctx context.Context, account model.Account, folderID string, update model.FolderUpdate) (*model.Folder, error) {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanWrite(ctx, account, folder)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}

	propagateTurnedOn := false
	if update.Name != nil {
		folder.Name = *update.Name
	}
	if update.Description != nil {
		folder.Description = *update.Description
	}
	if update.PropagatePermission != nil {
		propagateTurnedOn = *update.PropagatePermission && !folder.PropagatePermission
		folder.PropagatePermission = *update.PropagatePermission
	}
	folder.ModificationTime = time.Now().UTC()

	if err := s.validationUtil.ValidateFolder(*folder); err != nil {
		return nil, fmt.Errorf("%w: %v", registry_errors.ErrInvalidFolderData, err)
	}

	entryIDs := folder.EntryIDs
	updated, err := s.folderDAO.UpdateFolder(ctx, *folder)
	if err != nil {
		return nil, err
	}
	updated.EntryIDs = entryIDs

	if propagateTurnedOn {
		grants, err := s.permissionDAO.GetGrantsForTarget(ctx, model.TargetFolder, folderID)
		if err != nil {
			return nil, err
		}
		if err := s.mirrorGrantsToEntries(ctx, grants, entryIDs); err != nil {
			return nil, err
		}
	}

	if err := s.cacheService.SetFolder(ctx, *updated); err != nil {
		logger.Warn("Failed to cache folder", zap.Error(err), zap.String("folderID", updated.ID))
	}

	return updated, nil
}

// DeleteFolder removes the folder and its grants. Contained entries are
// untouched; only the grouping goes away.
func (s *FolderService) DeleteFolder(ctx context.Context, account model.Account, folderID string) error {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, folder)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.folderDAO.DeleteFolder(ctx, folderID); err != nil {
		return err
	}

	if err := s.permissionDAO.RemoveGrantsForTarget(ctx, model.TargetFolder, folderID); err != nil {
		logger.Error("Failed to remove grants for deleted folder",
			zap.Error(err),
			zap.String("folderID", folderID))
	}

	if err := s.cacheService.DeleteFolder(ctx, folderID); err != nil {
		logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", folderID))
	}

	s.eventBus.Publish(ctx, "folder.deleted", folderID)
	return nil
}

// AddEntries appends entries to the folder. For a propagating folder the
// folder's grants are mirrored onto each added entry at this moment.
func (s *FolderService) AddEntries(ctx context.Context, account model.Account, folderID string, entryIDs []int64) error {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, folder)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.folderDAO.AddEntries(ctx, folderID, entryIDs); err != nil {
		return err
	}

	if folder.PropagatePermission {
		grants, err := s.permissionDAO.GetGrantsForTarget(ctx, model.TargetFolder, folderID)
		if err != nil {
			return err
		}
		if err := s.mirrorGrantsToEntries(ctx, grants, entryIDs); err != nil {
			return err
		}
	}

	if err := s.cacheService.DeleteFolder(ctx, folderID); err != nil {
		logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", folderID))
	}
	return nil
}

// RemoveEntries takes entries out of the folder. Grants previously mirrored
// onto the entries stay; removal from a grouping revokes nothing.
func (s *FolderService) RemoveEntries(ctx context.Context, account model.Account, folderID string, entryIDs []int64) error {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, folder)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.folderDAO.RemoveEntries(ctx, folderID, entryIDs); err != nil {
		return err
	}

	if err := s.cacheService.DeleteFolder(ctx, folderID); err != nil {
		logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", folderID))
	}
	return nil
}

// MoveEntries relocates entries from one folder into one or more others.
// The actor needs write access on the source and every destination before
// anything changes; the move then removes from the source and adds to each
// destination, mirroring grants onto the entries for propagating
// destinations the same way a plain add would.
func (s *FolderService) MoveEntries(ctx context.Context, account model.Account, sourceFolderID string, destinationFolderIDs []string, entryIDs []int64) error {
	source, err := s.folderDAO.GetFolder(ctx, sourceFolderID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, source)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	destinations := make([]*model.Folder, 0, len(destinationFolderIDs))
	for _, destID := range destinationFolderIDs {
		dest, err := s.folderDAO.GetFolder(ctx, destID)
		if err != nil {
			return err
		}
		allowed, err := s.engine.CanWrite(ctx, account, dest)
		if err != nil {
			return err
		}
		if !allowed {
			return registry_errors.ErrPermissionDenied
		}
		destinations = append(destinations, dest)
	}

	if err := s.folderDAO.RemoveEntries(ctx, sourceFolderID, entryIDs); err != nil {
		return err
	}

	for _, dest := range destinations {
		if err := s.folderDAO.AddEntries(ctx, dest.ID, entryIDs); err != nil {
			return err
		}
		if dest.PropagatePermission {
			grants, err := s.permissionDAO.GetGrantsForTarget(ctx, model.TargetFolder, dest.ID)
			if err != nil {
				return err
			}
			if err := s.mirrorGrantsToEntries(ctx, grants, entryIDs); err != nil {
				return err
			}
		}
		if err := s.cacheService.DeleteFolder(ctx, dest.ID); err != nil {
			logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", dest.ID))
		}
	}

	if err := s.cacheService.DeleteFolder(ctx, sourceFolderID); err != nil {
		logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", sourceFolderID))
	}
	return nil
}

// GetContents returns the folder's entries in folder order. Read access to
// the folder covers the listing; entries are not re-gated one by one.
func (s *FolderService) GetContents(ctx context.Context, account model.Account, folderID string) ([]*model.Entry, error) {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanRead(ctx, account, folder)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}

	return s.folderDAO.GetContents(ctx, folderID)
}

// SetPublicReadAccess promotes or demotes the folder's public visibility.
func (s *FolderService) SetPublicReadAccess(ctx context.Context, account model.Account, folderID string, public bool) error {
	folder, err := s.folderDAO.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, folder)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.folderDAO.SetPublicReadAccess(ctx, folderID, public); err != nil {
		return err
	}

	if err := s.cacheService.DeleteFolder(ctx, folderID); err != nil {
		logger.Warn("Failed to evict folder from cache", zap.Error(err), zap.String("folderID", folderID))
	}
	return nil
}

// mirrorGrantsToEntries copies folder grants onto the given entries. The
// first store failure aborts the pass; grants already written stay. The
// grant store deduplicates tuples, so rerunning the same mirror converges
// instead of double-granting.
func (s *FolderService) mirrorGrantsToEntries(ctx context.Context, grants []model.AccessPermission, entryIDs []int64) error {
	if len(grants) == 0 || len(entryIDs) == 0 {
		return nil
	}

	for _, entryID := range entryIDs {
		entry, err := s.entryDAO.GetEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("propagation stopped at entry %d: %w", entryID, err)
		}
		for _, grant := range grants {
			mirrored := model.AccessPermission{
				SubjectType: grant.SubjectType,
				SubjectID:   grant.SubjectID,
				TargetType:  model.TargetEntry,
				TargetID:    entry.RecordID,
				Level:       grant.Level,
			}
			if err := s.permissionDAO.AddGrant(ctx, mirrored); err != nil {
				return fmt.Errorf("propagation stopped at entry %d: %w", entryID, err)
			}
		}
	}
	return nil
}
