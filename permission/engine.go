// api/permission/engine.go
package permission

import (
	"context"

	"go.uber.org/zap"

	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

// IEngine answers capability questions for one actor against one target.
// Managers never consult grants directly; every access decision funnels
// through here.
type IEngine interface {
	// CanRead reports read capability. A nil target denies rather than
	// erroring, so callers leak nothing about what exists.
	CanRead(ctx context.Context, account model.Account, target model.PermissionTarget) (bool, error)
	// CanWrite reports write capability. A nil target is an error: write
	// paths have already resolved their target and a miss is a bug or a
	// stale reference, not a probe.
	CanWrite(ctx context.Context, account model.Account, target model.PermissionTarget) (bool, error)
}

type Engine struct {
	permissionDAO dao.IPermissionDAO
	accountDAO    dao.IAccountDAO
	folderDAO     dao.IFolderDAO
}

var _ IEngine = &Engine{}

func NewEngine(permissionDAO dao.IPermissionDAO, accountDAO dao.IAccountDAO, folderDAO dao.IFolderDAO) *Engine {
	return &Engine{
		permissionDAO: permissionDAO,
		accountDAO:    accountDAO,
		folderDAO:     folderDAO,
	}
}

// CanRead checks, in order: administrator, owner, explicit READ grant,
// explicit WRITE grant (write capability always includes read), and for
// entries, membership in a publicly readable folder.
func (e *Engine) CanRead(ctx context.Context, account model.Account, target model.PermissionTarget) (bool, error) {
	if target == nil {
		return false, nil
	}

	if !account.Anonymous() {
		admin, err := e.accountDAO.IsAdministrator(ctx, account.Email)
		if err != nil {
			return false, err
		}
		if admin {
			return true, nil
		}
		if account.Email == target.AccessOwner() {
			return true, nil
		}
	}

	subjects, err := e.subjectIDs(ctx, account)
	if err != nil {
		return false, err
	}

	targetType, targetID := target.AccessTarget()
	for _, level := range []model.PermissionLevel{model.LevelRead, model.LevelWrite} {
		granted, err := e.permissionDAO.HasGrant(ctx, subjects, targetType, targetID, level)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}

	// A folder flagged for public read is readable by anyone, and so is an
	// entry inside any such folder.
	if folder, ok := target.(*model.Folder); ok && folder.PublicReadAccess {
		return true, nil
	}
	if entry, ok := target.(*model.Entry); ok {
		public, err := e.folderDAO.HasPublicReadFolder(ctx, entry.ID)
		if err != nil {
			return false, err
		}
		if public {
			return true, nil
		}
	}

	logger.Debug("Read denied",
		zap.String("account", account.Email),
		zap.String("targetType", string(targetType)),
		zap.String("targetID", targetID))
	return false, nil
}

// CanWrite checks administrator, owner, then explicit WRITE grants. Public
// read access never confers write.
func (e *Engine) CanWrite(ctx context.Context, account model.Account, target model.PermissionTarget) (bool, error) {
	if target == nil {
		return false, registry_errors.ErrTargetNotFound
	}

	if !account.Anonymous() {
		admin, err := e.accountDAO.IsAdministrator(ctx, account.Email)
		if err != nil {
			return false, err
		}
		if admin {
			return true, nil
		}
		if account.Email == target.AccessOwner() {
			return true, nil
		}
	}

	subjects, err := e.subjectIDs(ctx, account)
	if err != nil {
		return false, err
	}

	targetType, targetID := target.AccessTarget()
	granted, err := e.permissionDAO.HasGrant(ctx, subjects, targetType, targetID, model.LevelWrite)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	logger.Debug("Write denied",
		zap.String("account", account.Email),
		zap.String("targetType", string(targetType)),
		zap.String("targetID", targetID))
	return false, nil
}

// subjectIDs collects every id the actor can claim: the everyone group for
// all actors including the anonymous one, plus the account email and its
// group memberships when authenticated.
func (e *Engine) subjectIDs(ctx context.Context, account model.Account) ([]string, error) {
	subjects := []string{model.EveryoneGroupID}
	if account.Anonymous() {
		return subjects, nil
	}

	subjects = append(subjects, account.Email)
	groups, err := e.accountDAO.GetGroupsForAccount(ctx, account.Email)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		subjects = append(subjects, group.UUID)
	}
	return subjects, nil
}
