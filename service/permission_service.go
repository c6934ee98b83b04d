// api/service/permission_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/util"
)

// IPermissionService defines the interface for grant management
type IPermissionService interface {
	AddPermission(ctx context.Context, account model.Account, grant model.AccessPermission) error
	RemovePermission(ctx context.Context, account model.Account, grant model.AccessPermission) error
	GetPermissions(ctx context.Context, account model.Account, targetType model.TargetType, targetID string) ([]model.AccessPermission, error)
}

// PermissionService manages explicit grants. Changing grants on a target
// requires write capability on that target. For folders with permission
// propagation enabled, every grant or revoke is mirrored onto the folder's
// entries at the time of the change.
type PermissionService struct {
	permissionDAO   dao.IPermissionDAO
	entryDAO        dao.IEntryDAO
	folderDAO       dao.IFolderDAO
	engine          permission.IEngine
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IPermissionService = &PermissionService{}

// NewPermissionService creates a new instance of PermissionService
func NewPermissionService(permissionDAO dao.IPermissionDAO, entryDAO dao.IEntryDAO, folderDAO dao.IFolderDAO, engine permission.IEngine, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *PermissionService {
	return &PermissionService{
		permissionDAO:   permissionDAO,
		entryDAO:        entryDAO,
		folderDAO:       folderDAO,
		engine:          engine,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}
}

// AddPermission stores one grant. Granting is idempotent: re-adding an
// identical tuple changes nothing, which also makes a propagation retry
// after partial failure safe.
func (s *PermissionService) AddPermission(ctx context.Context, account model.Account, grant model.AccessPermission) error {
	if err := s.validationUtil.ValidatePermission(grant); err != nil {
		logger.Error("Validation for permission data failed", zap.Error(err))
		return fmt.Errorf("%w: %v", registry_errors.ErrInvalidPermissionData, err)
	}

	target, err := s.resolveTarget(ctx, grant.TargetType, grant.TargetID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, target)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.permissionDAO.AddGrant(ctx, grant); err != nil {
		return err
	}

	if err := s.notificationSvc.NotifyPermissionChange(ctx, "added", grant); err != nil {
		logger.Warn("Failed to send permission notification", zap.Error(err))
	}

	// Mirror onto contained entries for propagating folders.
	if folder, ok := target.(*model.Folder); ok && folder.PropagatePermission {
		return s.mirrorGrant(ctx, folder, grant, s.permissionDAO.AddGrant)
	}
	return nil
}

// RemovePermission drops one grant. For a propagating folder the matching
// mirrored grants come off the contained entries too.
func (s *PermissionService) RemovePermission(ctx context.Context, account model.Account, grant model.AccessPermission) error {
	if err := s.validationUtil.ValidatePermission(grant); err != nil {
		return fmt.Errorf("%w: %v", registry_errors.ErrInvalidPermissionData, err)
	}

	target, err := s.resolveTarget(ctx, grant.TargetType, grant.TargetID)
	if err != nil {
		return err
	}

	allowed, err := s.engine.CanWrite(ctx, account, target)
	if err != nil {
		return err
	}
	if !allowed {
		return registry_errors.ErrPermissionDenied
	}

	if err := s.permissionDAO.RemoveGrant(ctx, grant); err != nil {
		return err
	}

	if err := s.notificationSvc.NotifyPermissionChange(ctx, "removed", grant); err != nil {
		logger.Warn("Failed to send permission notification", zap.Error(err))
	}

	if folder, ok := target.(*model.Folder); ok && folder.PropagatePermission {
		return s.mirrorGrant(ctx, folder, grant, s.permissionDAO.RemoveGrant)
	}
	return nil
}

// GetPermissions lists the grants on a target. Requires write capability:
// who can see an entry is itself access-controlled information.
func (s *PermissionService) GetPermissions(ctx context.Context, account model.Account, targetType model.TargetType, targetID string) ([]model.AccessPermission, error) {
	target, err := s.resolveTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.CanWrite(ctx, account, target)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, registry_errors.ErrPermissionDenied
	}

	return s.permissionDAO.GetGrantsForTarget(ctx, targetType, targetID)
}

// resolveTarget loads the grant target. Grants against a missing target
// fail with ErrTargetNotFound rather than creating dangling tuples.
func (s *PermissionService) resolveTarget(ctx context.Context, targetType model.TargetType, targetID string) (model.PermissionTarget, error) {
	switch targetType {
	case model.TargetEntry:
		entry, err := s.entryDAO.GetEntryByRecordID(ctx, targetID)
		if err == registry_errors.ErrEntryNotFound {
			return nil, registry_errors.ErrTargetNotFound
		}
		if err != nil {
			return nil, err
		}
		return entry, nil
	case model.TargetFolder:
		folder, err := s.folderDAO.GetFolder(ctx, targetID)
		if err == registry_errors.ErrFolderNotFound {
			return nil, registry_errors.ErrTargetNotFound
		}
		if err != nil {
			return nil, err
		}
		return folder, nil
	}
	return nil, registry_errors.ErrTargetNotFound
}

// mirrorGrant applies the folder grant, retargeted per entry, across the
// folder contents. The first failure aborts the pass and surfaces; applied
// changes stay in place and a retry converges because the store
// deduplicates tuples.
func (s *PermissionService) mirrorGrant(ctx context.Context, folder *model.Folder, grant model.AccessPermission, apply func(context.Context, model.AccessPermission) error) error {
	for _, entryID := range folder.EntryIDs {
		entry, err := s.entryDAO.GetEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("propagation stopped at entry %d: %w", entryID, err)
		}
		mirrored := model.AccessPermission{
			SubjectType: grant.SubjectType,
			SubjectID:   grant.SubjectID,
			TargetType:  model.TargetEntry,
			TargetID:    entry.RecordID,
			Level:       grant.Level,
		}
		if err := apply(ctx, mirrored); err != nil {
			return fmt.Errorf("propagation stopped at entry %d: %w", entryID, err)
		}
	}
	return nil
}
