// api/service/folder_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

func TestCreateFolder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}

	t.Run("AnonymousRejected", func(t *testing.T) {
		_, err := h.folders.CreateFolder(ctx, model.Account{}, model.Folder{Name: "drafts"})
		assert.ErrorIs(t, err, registry_errors.ErrUnauthorized)
	})

	t.Run("AssignsIdentity", func(t *testing.T) {
		created, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "promoters"})
		assert.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, owner.Email, created.OwnerEmail)
		assert.False(t, created.CreationTime.IsZero())
	})

	t.Run("CarriedEntriesAdded", func(t *testing.T) {
		first := h.seedEntry(t, owner)
		second := h.seedEntry(t, owner)

		created, err := h.folders.CreateFolder(ctx, owner, model.Folder{
			Name:     "collection",
			EntryIDs: []int64{first.ID, second.ID},
		})
		assert.NoError(t, err)

		stored, err := h.folders.GetFolder(ctx, owner, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{first.ID, second.ID}, stored.EntryIDs)
	})

	t.Run("MissingNameRejected", func(t *testing.T) {
		_, err := h.folders.CreateFolder(ctx, owner, model.Folder{})
		assert.ErrorIs(t, err, registry_errors.ErrInvalidFolderData)
	})
}

func TestFolderMembershipOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}

	a := h.seedEntry(t, owner)
	b := h.seedEntry(t, owner)
	c := h.seedEntry(t, owner)

	folder, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "ordered"})
	assert.NoError(t, err)

	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{b.ID, a.ID}))
	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{c.ID, a.ID}))

	t.Run("AppendsKeepOrderAndReAddsAreNoOps", func(t *testing.T) {
		stored, err := h.folders.GetFolder(ctx, owner, folder.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{b.ID, a.ID, c.ID}, stored.EntryIDs)
	})

	t.Run("ContentsFollowFolderOrder", func(t *testing.T) {
		contents, err := h.folders.GetContents(ctx, owner, folder.ID)
		assert.NoError(t, err)
		ids := make([]int64, len(contents))
		for i, entry := range contents {
			ids[i] = entry.ID
		}
		assert.Equal(t, []int64{b.ID, a.ID, c.ID}, ids)
	})

	t.Run("RemovalLeavesRestInPlace", func(t *testing.T) {
		assert.NoError(t, h.folders.RemoveEntries(ctx, owner, folder.ID, []int64{a.ID}))

		stored, err := h.folders.GetFolder(ctx, owner, folder.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{b.ID, c.ID}, stored.EntryIDs)
	})
}

func TestMoveEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}
	stranger := model.Account{Email: "drifter@example.org"}

	a := h.seedEntry(t, owner)
	b := h.seedEntry(t, owner)

	source, err := h.folders.CreateFolder(ctx, owner, model.Folder{
		Name:     "inbox",
		EntryIDs: []int64{a.ID, b.ID},
	})
	assert.NoError(t, err)
	dest, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "archive"})
	assert.NoError(t, err)

	t.Run("StrangerDenied", func(t *testing.T) {
		err := h.folders.MoveEntries(ctx, stranger, source.ID, []string{dest.ID}, []int64{a.ID})
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("DeniedDestinationBlocksMove", func(t *testing.T) {
		foreign, err := h.folders.CreateFolder(ctx, stranger, model.Folder{Name: "theirs"})
		assert.NoError(t, err)

		err = h.folders.MoveEntries(ctx, owner, source.ID, []string{foreign.ID}, []int64{a.ID})
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)

		unchanged, err := h.folders.GetFolder(ctx, owner, source.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{a.ID, b.ID}, unchanged.EntryIDs)
	})

	t.Run("RelocatesMembership", func(t *testing.T) {
		err := h.folders.MoveEntries(ctx, owner, source.ID, []string{dest.ID}, []int64{a.ID})
		assert.NoError(t, err)

		remaining, err := h.folders.GetFolder(ctx, owner, source.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{b.ID}, remaining.EntryIDs)

		moved, err := h.folders.GetFolder(ctx, owner, dest.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int64{a.ID}, moved.EntryIDs)
	})

	t.Run("PropagatingDestinationMirrorsGrants", func(t *testing.T) {
		reader := model.Account{Email: "reader@example.org"}
		shared, err := h.folders.CreateFolder(ctx, owner, model.Folder{
			Name:                "shared",
			PropagatePermission: true,
		})
		assert.NoError(t, err)
		err = h.permissions.AddPermission(ctx, owner, model.AccessPermission{
			SubjectType: model.SubjectAccount,
			SubjectID:   reader.Email,
			TargetType:  model.TargetFolder,
			TargetID:    shared.ID,
			Level:       model.LevelRead,
		})
		assert.NoError(t, err)

		err = h.folders.MoveEntries(ctx, owner, source.ID, []string{shared.ID}, []int64{b.ID})
		assert.NoError(t, err)

		got, err := h.entries.GetEntry(ctx, reader, b.ID)
		assert.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	})
}

func TestFolderPermissionPropagation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}
	collaborator := model.Account{Email: "collaborator@example.org"}

	entry := h.seedEntry(t, owner)
	later := h.seedEntry(t, owner)

	folder, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "shared work"})
	assert.NoError(t, err)
	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{entry.ID}))

	folderGrant := model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   collaborator.Email,
		TargetType:  model.TargetFolder,
		TargetID:    folder.ID,
		Level:       model.LevelRead,
	}
	assert.NoError(t, h.permissions.AddPermission(ctx, owner, folderGrant))

	t.Run("NoMirroringWhileDisabled", func(t *testing.T) {
		ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
			model.TargetEntry, entry.RecordID, model.LevelRead)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("TogglingOnMirrorsExistingGrants", func(t *testing.T) {
		on := true
		_, err := h.folders.UpdateFolder(ctx, owner, folder.ID, model.FolderUpdate{PropagatePermission: &on})
		assert.NoError(t, err)

		ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
			model.TargetEntry, entry.RecordID, model.LevelRead)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AddingEntriesMirrorsOntoThem", func(t *testing.T) {
		assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{later.ID}))

		ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
			model.TargetEntry, later.RecordID, model.LevelRead)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RemovingEntriesRevokesNothing", func(t *testing.T) {
		assert.NoError(t, h.folders.RemoveEntries(ctx, owner, folder.ID, []int64{entry.ID}))

		ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
			model.TargetEntry, entry.RecordID, model.LevelRead)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("TogglingOffKeepsMirroredGrants", func(t *testing.T) {
		off := false
		_, err := h.folders.UpdateFolder(ctx, owner, folder.ID, model.FolderUpdate{PropagatePermission: &off})
		assert.NoError(t, err)

		ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
			model.TargetEntry, later.RecordID, model.LevelRead)
		assert.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestPublicReadAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}
	anonymous := model.Account{}

	entry := h.seedEntry(t, owner)
	folder, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "releases"})
	assert.NoError(t, err)
	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{entry.ID}))

	t.Run("OnlyWritersPromote", func(t *testing.T) {
		err := h.folders.SetPublicReadAccess(ctx, model.Account{Email: "stranger@example.org"}, folder.ID, true)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("PromotionOpensFolderAndContents", func(t *testing.T) {
		assert.NoError(t, h.folders.SetPublicReadAccess(ctx, owner, folder.ID, true))

		contents, err := h.folders.GetContents(ctx, anonymous, folder.ID)
		assert.NoError(t, err)
		assert.Len(t, contents, 1)

		got, err := h.entries.GetEntry(ctx, anonymous, entry.ID)
		assert.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
	})

	t.Run("DemotionClosesAgain", func(t *testing.T) {
		assert.NoError(t, h.folders.SetPublicReadAccess(ctx, owner, folder.ID, false))

		_, err := h.folders.GetContents(ctx, anonymous, folder.ID)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)

		_, err = h.entries.GetEntry(ctx, anonymous, entry.ID)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})
}

func TestDeleteFolder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "curator@example.org"}

	entry := h.seedEntry(t, owner)
	folder, err := h.folders.CreateFolder(ctx, owner, model.Folder{Name: "doomed"})
	assert.NoError(t, err)
	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{entry.ID}))

	assert.NoError(t, h.permissions.AddPermission(ctx, owner, model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   "reader@example.org",
		TargetType:  model.TargetFolder,
		TargetID:    folder.ID,
		Level:       model.LevelRead,
	}))

	assert.NoError(t, h.folders.DeleteFolder(ctx, owner, folder.ID))

	// The grouping and its grants go; the entries stay.
	_, err = h.registry.GetFolder(ctx, folder.ID)
	assert.ErrorIs(t, err, registry_errors.ErrFolderNotFound)
	assert.Equal(t, 0, h.registry.GrantCount())

	_, err = h.registry.GetEntry(ctx, entry.ID)
	assert.NoError(t, err)
}
