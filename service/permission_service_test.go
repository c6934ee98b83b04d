// api/service/permission_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

func entryGrant(subject string, entry *model.Entry, level model.PermissionLevel) model.AccessPermission {
	return model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   subject,
		TargetType:  model.TargetEntry,
		TargetID:    entry.RecordID,
		Level:       level,
	}
}

func TestAddPermission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	reader := model.Account{Email: "reader@example.org"}

	entry := h.seedEntry(t, owner)

	t.Run("OwnerGrantsRead", func(t *testing.T) {
		assert.NoError(t, h.permissions.AddPermission(ctx, owner, entryGrant(reader.Email, entry, model.LevelRead)))

		got, err := h.entries.GetEntry(ctx, reader, entry.ID)
		assert.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
	})

	t.Run("GrantingIsIdempotent", func(t *testing.T) {
		before := h.registry.GrantCount()
		assert.NoError(t, h.permissions.AddPermission(ctx, owner, entryGrant(reader.Email, entry, model.LevelRead)))
		assert.Equal(t, before, h.registry.GrantCount())
	})

	t.Run("NonWriterCannotGrant", func(t *testing.T) {
		// A READ grant does not let its holder hand out access.
		err := h.permissions.AddPermission(ctx, reader, entryGrant("friend@example.org", entry, model.LevelRead))
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("MissingTargetRejected", func(t *testing.T) {
		grant := model.AccessPermission{
			SubjectType: model.SubjectAccount,
			SubjectID:   reader.Email,
			TargetType:  model.TargetEntry,
			TargetID:    "no-such-record",
			Level:       model.LevelRead,
		}
		err := h.permissions.AddPermission(ctx, owner, grant)
		assert.ErrorIs(t, err, registry_errors.ErrTargetNotFound)
	})

	t.Run("MalformedGrantRejected", func(t *testing.T) {
		grant := entryGrant(reader.Email, entry, "ADMIN")
		err := h.permissions.AddPermission(ctx, owner, grant)
		assert.ErrorIs(t, err, registry_errors.ErrInvalidPermissionData)
	})
}

func TestRemovePermission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	reader := model.Account{Email: "reader@example.org"}

	entry := h.seedEntry(t, owner)
	grant := entryGrant(reader.Email, entry, model.LevelRead)
	assert.NoError(t, h.permissions.AddPermission(ctx, owner, grant))

	t.Run("RevokeClosesAccess", func(t *testing.T) {
		assert.NoError(t, h.permissions.RemovePermission(ctx, owner, grant))

		_, err := h.entries.GetEntry(ctx, reader, entry.ID)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("RevokingAbsentGrantIsNoOp", func(t *testing.T) {
		assert.NoError(t, h.permissions.RemovePermission(ctx, owner, grant))
	})
}

func TestPermissionPropagationThroughService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	collaborator := model.Account{Email: "collaborator@example.org"}

	first := h.seedEntry(t, owner)
	second := h.seedEntry(t, owner)

	folder, err := h.folders.CreateFolder(ctx, owner, model.Folder{
		Name:                "team folder",
		PropagatePermission: true,
	})
	assert.NoError(t, err)
	assert.NoError(t, h.folders.AddEntries(ctx, owner, folder.ID, []int64{first.ID, second.ID}))

	folderGrant := model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   collaborator.Email,
		TargetType:  model.TargetFolder,
		TargetID:    folder.ID,
		Level:       model.LevelWrite,
	}

	t.Run("GrantMirrorsOntoContents", func(t *testing.T) {
		assert.NoError(t, h.permissions.AddPermission(ctx, owner, folderGrant))

		for _, entry := range []*model.Entry{first, second} {
			ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
				model.TargetEntry, entry.RecordID, model.LevelWrite)
			assert.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("MirroredWriteWorksCrossOwner", func(t *testing.T) {
		modified := *first
		modified.Alias = "edited by collaborator"
		updated, err := h.entries.UpdateEntry(ctx, collaborator, modified)
		assert.NoError(t, err)
		assert.Equal(t, "edited by collaborator", updated.Alias)
	})

	t.Run("RevokeMirrorsOntoContents", func(t *testing.T) {
		assert.NoError(t, h.permissions.RemovePermission(ctx, owner, folderGrant))

		for _, entry := range []*model.Entry{first, second} {
			ok, err := h.registry.HasGrant(ctx, []string{collaborator.Email},
				model.TargetEntry, entry.RecordID, model.LevelWrite)
			assert.NoError(t, err)
			assert.False(t, ok)
		}
	})
}

func TestGetPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	reader := model.Account{Email: "reader@example.org"}

	entry := h.seedEntry(t, owner)
	assert.NoError(t, h.permissions.AddPermission(ctx, owner, entryGrant(reader.Email, entry, model.LevelRead)))

	t.Run("OwnerListsGrants", func(t *testing.T) {
		grants, err := h.permissions.GetPermissions(ctx, owner, model.TargetEntry, entry.RecordID)
		assert.NoError(t, err)
		assert.Len(t, grants, 1)
		assert.Equal(t, reader.Email, grants[0].SubjectID)
	})

	t.Run("ReaderCannotListGrants", func(t *testing.T) {
		// Who can see an entry is itself access-controlled information.
		_, err := h.permissions.GetPermissions(ctx, reader, model.TargetEntry, entry.RecordID)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})
}
