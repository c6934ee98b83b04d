// api/dao/interfaces.go
package dao

import (
	"context"

	"github.com/openparts/registry/api/model"
)

// The DAO interfaces are the seams between the managers and the graph
// store. Managers receive them by injection at process start; nothing in
// this package is reached through a global.
//
// Read paths are permission-agnostic: callers are responsible for gating
// results through the permission engine before handing them to an actor.

type IEntryDAO interface {
	CreateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error)
	UpdateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	GetEntry(ctx context.Context, entryID int64) (*model.Entry, error)
	GetEntryByRecordID(ctx context.Context, recordID string) (*model.Entry, error)
	ListEntries(ctx context.Context, criteria model.EntryListCriteria) ([]*model.Entry, error)
	CountEntries(ctx context.Context) (int64, error)
}

type ISampleDAO interface {
	SaveSample(ctx context.Context, sample model.Sample) (*model.Sample, error)
	// DeleteSample removes the sample and, when deleteStorage is set, its
	// storage location in the same transaction.
	DeleteSample(ctx context.Context, sampleID int64, deleteStorage bool) error
	GetSample(ctx context.Context, sampleID int64) (*model.Sample, error)
	GetSamplesByEntry(ctx context.Context, entryID int64) ([]*model.Sample, error)
	GetSamplesByDepositor(ctx context.Context, depositorEmail string, offset, limit int) ([]*model.Sample, error)
	GetSamplesByStorage(ctx context.Context, storageID string) ([]*model.Sample, error)
	GetSamplesByIDSet(ctx context.Context, ids []int64, ascending bool) ([]*model.Sample, error)
	GetSampleIDsByDepositor(ctx context.Context, depositorEmail string, field model.SortField, ascending bool) ([]int64, error)
	GetSampleCountByDepositor(ctx context.Context, depositorEmail string) (int, error)
	HasSample(ctx context.Context, entryID int64) (bool, error)
}

type IStorageDAO interface {
	SaveStorage(ctx context.Context, storage model.Storage) (*model.Storage, error)
	GetStorage(ctx context.Context, storageID string) (*model.Storage, error)
	DeleteStorage(ctx context.Context, storageID string) error
	GetChildren(ctx context.Context, parentID string) ([]*model.Storage, error)
}

type IFolderDAO interface {
	CreateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error)
	GetFolder(ctx context.Context, folderID string) (*model.Folder, error)
	UpdateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error
	AddEntries(ctx context.Context, folderID string, entryIDs []int64) error
	RemoveEntries(ctx context.Context, folderID string, entryIDs []int64) error
	GetContents(ctx context.Context, folderID string) ([]*model.Entry, error)
	GetFoldersContainingEntry(ctx context.Context, entryID int64) ([]*model.Folder, error)
	// HasPublicReadFolder reports whether the entry sits in at least one
	// folder with public read access.
	HasPublicReadFolder(ctx context.Context, entryID int64) (bool, error)
	SetPublicReadAccess(ctx context.Context, folderID string, public bool) error
}

type IPermissionDAO interface {
	// AddGrant is idempotent: an identical (subject, target, level) tuple
	// is stored at most once.
	AddGrant(ctx context.Context, permission model.AccessPermission) error
	RemoveGrant(ctx context.Context, permission model.AccessPermission) error
	GetGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) ([]model.AccessPermission, error)
	// HasGrant reports whether any of the subject ids (account emails or
	// group UUIDs) holds exactly the given level on the target.
	HasGrant(ctx context.Context, subjectIDs []string, targetType model.TargetType, targetID string, level model.PermissionLevel) (bool, error)
	RemoveGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) error
}

type IAccountDAO interface {
	GetAccount(ctx context.Context, email string) (*model.Account, error)
	SaveAccount(ctx context.Context, account model.Account) (*model.Account, error)
	GetGroupsForAccount(ctx context.Context, email string) ([]model.Group, error)
	IsAdministrator(ctx context.Context, email string) (bool, error)
	SaveGroup(ctx context.Context, group model.Group) (*model.Group, error)
	AddGroupMember(ctx context.Context, groupUUID, email string) error
}
