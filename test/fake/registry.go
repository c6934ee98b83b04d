// api/test/fake/registry.go
//
// Package fake provides an in-memory stand-in for the graph store. One
// Registry implements every DAO interface over shared maps, so the managers
// can be exercised against a single consistent state without Neo4j. The
// contracts the Cypher layer guarantees are reproduced here: sequential ids,
// grant deduplication, ordered folder membership, and the sample/tube
// cascade on entry deletion.
package fake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

type Registry struct {
	mu sync.Mutex

	nextEntryID  int64
	nextSampleID int64

	entries  map[int64]model.Entry
	samples  map[int64]model.Sample
	storages map[string]model.Storage
	folders  map[string]model.Folder

	// folderEntries holds membership in folder order.
	folderEntries map[string][]int64

	grants []model.AccessPermission

	accounts     map[string]model.Account
	groups       map[string]model.Group
	groupMembers map[string][]string
}

var _ dao.IEntryDAO = &Registry{}
var _ dao.ISampleDAO = &Registry{}
var _ dao.IStorageDAO = &Registry{}
var _ dao.IFolderDAO = &Registry{}
var _ dao.IPermissionDAO = &Registry{}
var _ dao.IAccountDAO = &Registry{}

func NewRegistry() *Registry {
	return &Registry{
		entries:       make(map[int64]model.Entry),
		samples:       make(map[int64]model.Sample),
		storages:      make(map[string]model.Storage),
		folders:       make(map[string]model.Folder),
		folderEntries: make(map[string][]int64),
		accounts:      make(map[string]model.Account),
		groups:        make(map[string]model.Group),
		groupMembers:  make(map[string][]string),
	}
}

// ---- entries ----

func (r *Registry) CreateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEntryID++
	entry.ID = r.nextEntryID
	r.entries[entry.ID] = entry
	created := entry
	return &created, nil
}

func (r *Registry) UpdateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[entry.ID]
	if !ok {
		return nil, registry_errors.ErrEntryNotFound
	}
	// The store never rewrites the immutable identity properties.
	entry.RecordID = existing.RecordID
	entry.CreationTime = existing.CreationTime
	r.entries[entry.ID] = entry
	updated := entry
	return &updated, nil
}

func (r *Registry) DeleteEntry(ctx context.Context, entryID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entryID]; !ok {
		return registry_errors.ErrEntryNotFound
	}
	delete(r.entries, entryID)

	// Cascade: samples of the entry go with it, and a sample in a tube
	// takes the tube along.
	for id, sample := range r.samples {
		if sample.EntryID != entryID {
			continue
		}
		if st, ok := r.storages[sample.StorageID]; ok && st.Type == model.StorageTube {
			delete(r.storages, st.ID)
		}
		delete(r.samples, id)
	}

	for folderID, members := range r.folderEntries {
		r.folderEntries[folderID] = removeInt64(members, entryID)
	}
	return nil
}

func (r *Registry) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryID]
	if !ok {
		return nil, registry_errors.ErrEntryNotFound
	}
	return &entry, nil
}

func (r *Registry) GetEntryByRecordID(ctx context.Context, recordID string) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.RecordID == recordID {
			found := entry
			return &found, nil
		}
	}
	return nil, registry_errors.ErrEntryNotFound
}

func (r *Registry) ListEntries(ctx context.Context, criteria model.EntryListCriteria) ([]*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]model.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		all = append(all, entry)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !criteria.Ascending {
			a, b = b, a
		}
		switch criteria.SortBy {
		case model.SortName:
			return firstName(a) < firstName(b)
		case model.SortStatus:
			return a.Status < b.Status
		default:
			return a.CreationTime.Before(b.CreationTime) ||
				(a.CreationTime.Equal(b.CreationTime) && a.ID < b.ID)
		}
	})

	if criteria.Offset >= len(all) {
		return nil, nil
	}
	all = all[criteria.Offset:]
	if criteria.Limit > 0 && criteria.Limit < len(all) {
		all = all[:criteria.Limit]
	}

	out := make([]*model.Entry, len(all))
	for i := range all {
		e := all[i]
		out[i] = &e
	}
	return out, nil
}

func (r *Registry) CountEntries(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

func firstName(e model.Entry) string {
	if len(e.Names) > 0 {
		return e.Names[0].Name
	}
	return ""
}

// ---- samples ----

func (r *Registry) SaveSample(ctx context.Context, sample model.Sample) (*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sample.ID == 0 {
		if _, ok := r.entries[sample.EntryID]; !ok {
			return nil, registry_errors.ErrEntryNotFound
		}
		r.nextSampleID++
		sample.ID = r.nextSampleID
	} else if _, ok := r.samples[sample.ID]; !ok {
		return nil, registry_errors.ErrSampleNotFound
	}

	if sample.StorageID != "" {
		if _, ok := r.storages[sample.StorageID]; !ok {
			return nil, registry_errors.ErrStorageNotFound
		}
	}

	r.samples[sample.ID] = sample
	saved := sample
	return &saved, nil
}

func (r *Registry) DeleteSample(ctx context.Context, sampleID int64, deleteStorage bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sample, ok := r.samples[sampleID]
	if !ok {
		return registry_errors.ErrSampleNotFound
	}
	if deleteStorage && sample.StorageID != "" {
		delete(r.storages, sample.StorageID)
	}
	delete(r.samples, sampleID)
	return nil
}

func (r *Registry) GetSample(ctx context.Context, sampleID int64) (*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sample, ok := r.samples[sampleID]
	if !ok {
		return nil, registry_errors.ErrSampleNotFound
	}
	return &sample, nil
}

func (r *Registry) GetSamplesByEntry(ctx context.Context, entryID int64) ([]*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collectSamples(func(s model.Sample) bool { return s.EntryID == entryID }, true), nil
}

func (r *Registry) GetSamplesByDepositor(ctx context.Context, depositorEmail string, offset, limit int) ([]*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.collectSamples(func(s model.Sample) bool { return s.DepositorEmail == depositorEmail }, false)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *Registry) GetSamplesByStorage(ctx context.Context, storageID string) ([]*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collectSamples(func(s model.Sample) bool { return s.StorageID == storageID }, true), nil
}

func (r *Registry) GetSamplesByIDSet(ctx context.Context, ids []int64, ascending bool) ([]*model.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Sample
	for _, id := range ids {
		if sample, ok := r.samples[id]; ok {
			s := sample
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Registry) GetSampleIDsByDepositor(ctx context.Context, depositorEmail string, field model.SortField, ascending bool) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.collectSamples(func(s model.Sample) bool { return s.DepositorEmail == depositorEmail }, true)
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		if field == model.SortName {
			less = matched[i].Label < matched[j].Label
		} else {
			less = matched[i].CreationTime.Before(matched[j].CreationTime)
		}
		if !ascending {
			return !less
		}
		return less
	})

	ids := make([]int64, len(matched))
	for i, s := range matched {
		ids[i] = s.ID
	}
	return ids, nil
}

func (r *Registry) GetSampleCountByDepositor(ctx context.Context, depositorEmail string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, sample := range r.samples {
		if sample.DepositorEmail == depositorEmail {
			count++
		}
	}
	return count, nil
}

func (r *Registry) HasSample(ctx context.Context, entryID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sample := range r.samples {
		if sample.EntryID == entryID {
			return true, nil
		}
	}
	return false, nil
}

// collectSamples returns samples matching the filter in creation order
// (ascending when asc is set, newest first otherwise). Callers hold the lock.
func (r *Registry) collectSamples(match func(model.Sample) bool, asc bool) []*model.Sample {
	var out []*model.Sample
	for _, sample := range r.samples {
		if match(sample) {
			s := sample
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ---- storages ----

func (r *Registry) SaveStorage(ctx context.Context, storage model.Storage) (*model.Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if storage.ParentID != "" {
		if _, ok := r.storages[storage.ParentID]; !ok {
			return nil, registry_errors.ErrStorageNotFound
		}
	}
	r.storages[storage.ID] = storage
	saved := storage
	return &saved, nil
}

func (r *Registry) GetStorage(ctx context.Context, storageID string) (*model.Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	storage, ok := r.storages[storageID]
	if !ok {
		return nil, registry_errors.ErrStorageNotFound
	}
	return &storage, nil
}

func (r *Registry) DeleteStorage(ctx context.Context, storageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.storages[storageID]; !ok {
		return registry_errors.ErrStorageNotFound
	}
	delete(r.storages, storageID)
	return nil
}

func (r *Registry) GetChildren(ctx context.Context, parentID string) ([]*model.Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Storage
	for _, storage := range r.storages {
		if storage.ParentID == parentID {
			s := storage
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ---- folders ----

func (r *Registry) CreateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	folder.EntryIDs = nil
	r.folders[folder.ID] = folder
	created := folder
	return &created, nil
}

func (r *Registry) GetFolder(ctx context.Context, folderID string) (*model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	folder, ok := r.folders[folderID]
	if !ok {
		return nil, registry_errors.ErrFolderNotFound
	}
	folder.EntryIDs = append([]int64(nil), r.folderEntries[folderID]...)
	return &folder, nil
}

func (r *Registry) UpdateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.folders[folder.ID]
	if !ok {
		return nil, registry_errors.ErrFolderNotFound
	}
	folder.CreationTime = existing.CreationTime
	folder.EntryIDs = nil
	r.folders[folder.ID] = folder
	updated := folder
	updated.EntryIDs = append([]int64(nil), r.folderEntries[folder.ID]...)
	return &updated, nil
}

func (r *Registry) DeleteFolder(ctx context.Context, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[folderID]; !ok {
		return registry_errors.ErrFolderNotFound
	}
	delete(r.folders, folderID)
	delete(r.folderEntries, folderID)
	return nil
}

func (r *Registry) AddEntries(ctx context.Context, folderID string, entryIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[folderID]; !ok {
		return registry_errors.ErrFolderNotFound
	}
	members := r.folderEntries[folderID]
	for _, id := range entryIDs {
		if _, ok := r.entries[id]; !ok {
			continue
		}
		if containsInt64(members, id) {
			continue
		}
		members = append(members, id)
	}
	r.folderEntries[folderID] = members
	return nil
}

func (r *Registry) RemoveEntries(ctx context.Context, folderID string, entryIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[folderID]; !ok {
		return registry_errors.ErrFolderNotFound
	}
	members := r.folderEntries[folderID]
	for _, id := range entryIDs {
		members = removeInt64(members, id)
	}
	r.folderEntries[folderID] = members
	return nil
}

func (r *Registry) GetContents(ctx context.Context, folderID string) ([]*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[folderID]; !ok {
		return nil, registry_errors.ErrFolderNotFound
	}
	var out []*model.Entry
	for _, id := range r.folderEntries[folderID] {
		if entry, ok := r.entries[id]; ok {
			e := entry
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *Registry) GetFoldersContainingEntry(ctx context.Context, entryID int64) ([]*model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Folder
	for id, members := range r.folderEntries {
		if containsInt64(members, entryID) {
			folder := r.folders[id]
			folder.EntryIDs = append([]int64(nil), members...)
			f := folder
			out = append(out, &f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Registry) HasPublicReadFolder(ctx context.Context, entryID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, members := range r.folderEntries {
		if r.folders[id].PublicReadAccess && containsInt64(members, entryID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) SetPublicReadAccess(ctx context.Context, folderID string, public bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	folder, ok := r.folders[folderID]
	if !ok {
		return registry_errors.ErrFolderNotFound
	}
	folder.PublicReadAccess = public
	folder.ModificationTime = time.Now().UTC()
	r.folders[folderID] = folder
	return nil
}

// ---- grants ----

func (r *Registry) AddGrant(ctx context.Context, permission model.AccessPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.targetExists(permission.TargetType, permission.TargetID) {
		return registry_errors.ErrTargetNotFound
	}
	for _, existing := range r.grants {
		if existing == permission {
			return nil
		}
	}
	r.grants = append(r.grants, permission)
	return nil
}

func (r *Registry) RemoveGrant(ctx context.Context, permission model.AccessPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.grants[:0]
	for _, existing := range r.grants {
		if existing != permission {
			kept = append(kept, existing)
		}
	}
	r.grants = kept
	return nil
}

func (r *Registry) GetGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) ([]model.AccessPermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.AccessPermission
	for _, grant := range r.grants {
		if grant.TargetType == targetType && grant.TargetID == targetID {
			out = append(out, grant)
		}
	}
	return out, nil
}

func (r *Registry) HasGrant(ctx context.Context, subjectIDs []string, targetType model.TargetType, targetID string, level model.PermissionLevel) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(subjectIDs) == 0 {
		return false, nil
	}
	for _, grant := range r.grants {
		if grant.TargetType != targetType || grant.TargetID != targetID || grant.Level != level {
			continue
		}
		for _, subject := range subjectIDs {
			if grant.SubjectID == subject {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Registry) RemoveGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.grants[:0]
	for _, grant := range r.grants {
		if grant.TargetType != targetType || grant.TargetID != targetID {
			kept = append(kept, grant)
		}
	}
	r.grants = kept
	return nil
}

// GrantCount reports the number of stored grant tuples; tests use it to
// check deduplication and revocation.
func (r *Registry) GrantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.grants)
}

func (r *Registry) targetExists(targetType model.TargetType, targetID string) bool {
	if targetType == model.TargetFolder {
		_, ok := r.folders[targetID]
		return ok
	}
	for _, entry := range r.entries {
		if entry.RecordID == targetID {
			return true
		}
	}
	return false
}

// ---- accounts and groups ----

func (r *Registry) GetAccount(ctx context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[email]
	if !ok {
		return nil, registry_errors.ErrAccountNotFound
	}
	return &account, nil
}

func (r *Registry) SaveAccount(ctx context.Context, account model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[account.Email] = account
	saved := account
	return &saved, nil
}

func (r *Registry) GetGroupsForAccount(ctx context.Context, email string) ([]model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Group
	for uuid, members := range r.groupMembers {
		for _, member := range members {
			if member == email {
				out = append(out, r.groups[uuid])
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out, nil
}

func (r *Registry) IsAdministrator(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[email]
	if !ok {
		return false, nil
	}
	return account.IsAdmin, nil
}

func (r *Registry) SaveGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups[group.UUID] = group
	saved := group
	return &saved, nil
}

func (r *Registry) AddGroupMember(ctx context.Context, groupUUID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[groupUUID]; !ok {
		return registry_errors.ErrGroupNotFound
	}
	if _, ok := r.accounts[email]; !ok {
		r.accounts[email] = model.Account{Email: email}
	}
	for _, member := range r.groupMembers[groupUUID] {
		if member == email {
			return nil
		}
	}
	r.groupMembers[groupUUID] = append(r.groupMembers[groupUUID], email)
	return nil
}

func containsInt64(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func removeInt64(list []int64, v int64) []int64 {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
