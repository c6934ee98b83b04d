// api/permission/engine_test.go
package permission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/permission"
	"github.com/openparts/registry/api/test/fake"
)

func setupEngine(t *testing.T) (*permission.Engine, *fake.Registry) {
	t.Helper()
	logger.InitLogger("../logging")
	registry := fake.NewRegistry()
	engine := permission.NewEngine(registry, registry, registry)
	return engine, registry
}

func TestEngineOwnerAndAdmin(t *testing.T) {
	engine, registry := setupEngine(t)
	ctx := context.Background()

	owner := model.Account{Email: "owner@example.org"}
	admin := model.Account{Email: "admin@example.org", IsAdmin: true}
	stranger := model.Account{Email: "stranger@example.org"}

	registry.SaveAccount(ctx, owner)
	registry.SaveAccount(ctx, admin)
	registry.SaveAccount(ctx, stranger)

	entry, err := registry.CreateEntry(ctx, model.Entry{
		RecordID:   "rec-1",
		OwnerEmail: owner.Email,
	})
	assert.NoError(t, err)

	t.Run("OwnerReadsAndWrites", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, owner, entry)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CanWrite(ctx, owner, entry)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AdministratorOverridesEverything", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, admin, entry)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CanWrite(ctx, admin, entry)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, stranger, entry)
		assert.NoError(t, err)
		assert.False(t, ok)

		ok, err = engine.CanWrite(ctx, stranger, entry)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEngineExplicitGrants(t *testing.T) {
	engine, registry := setupEngine(t)
	ctx := context.Background()

	reader := model.Account{Email: "reader@example.org"}
	writer := model.Account{Email: "writer@example.org"}
	registry.SaveAccount(ctx, reader)
	registry.SaveAccount(ctx, writer)

	entry, err := registry.CreateEntry(ctx, model.Entry{
		RecordID:   "rec-2",
		OwnerEmail: "owner@example.org",
	})
	assert.NoError(t, err)

	assert.NoError(t, registry.AddGrant(ctx, model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   reader.Email,
		TargetType:  model.TargetEntry,
		TargetID:    entry.RecordID,
		Level:       model.LevelRead,
	}))
	assert.NoError(t, registry.AddGrant(ctx, model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   writer.Email,
		TargetType:  model.TargetEntry,
		TargetID:    entry.RecordID,
		Level:       model.LevelWrite,
	}))

	t.Run("ReadGrantDoesNotConferWrite", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, reader, entry)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CanWrite(ctx, reader, entry)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("WriteGrantImpliesRead", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, writer, entry)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CanWrite(ctx, writer, entry)
		assert.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestEngineGroupGrants(t *testing.T) {
	engine, registry := setupEngine(t)
	ctx := context.Background()

	member := model.Account{Email: "member@example.org"}
	outsider := model.Account{Email: "outsider@example.org"}
	registry.SaveAccount(ctx, member)
	registry.SaveAccount(ctx, outsider)

	group, err := registry.SaveGroup(ctx, model.Group{UUID: "group-1", Label: "lab"})
	assert.NoError(t, err)
	assert.NoError(t, registry.AddGroupMember(ctx, group.UUID, member.Email))

	entry, err := registry.CreateEntry(ctx, model.Entry{
		RecordID:   "rec-3",
		OwnerEmail: "owner@example.org",
	})
	assert.NoError(t, err)

	assert.NoError(t, registry.AddGrant(ctx, model.AccessPermission{
		SubjectType: model.SubjectGroup,
		SubjectID:   group.UUID,
		TargetType:  model.TargetEntry,
		TargetID:    entry.RecordID,
		Level:       model.LevelRead,
	}))

	t.Run("MemberReadsThroughGroup", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, member, entry)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("NonMemberDenied", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, outsider, entry)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("EveryoneGroupReachesAnonymous", func(t *testing.T) {
		assert.NoError(t, registry.AddGrant(ctx, model.AccessPermission{
			SubjectType: model.SubjectGroup,
			SubjectID:   model.EveryoneGroupID,
			TargetType:  model.TargetEntry,
			TargetID:    entry.RecordID,
			Level:       model.LevelRead,
		}))

		anonymous := model.Account{}
		ok, err := engine.CanRead(ctx, anonymous, entry)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CanWrite(ctx, anonymous, entry)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEnginePublicReadFolder(t *testing.T) {
	engine, registry := setupEngine(t)
	ctx := context.Background()

	anonymous := model.Account{}

	entry, err := registry.CreateEntry(ctx, model.Entry{
		RecordID:   "rec-4",
		OwnerEmail: "owner@example.org",
	})
	assert.NoError(t, err)

	folder, err := registry.CreateFolder(ctx, model.Folder{
		ID:               "folder-1",
		Name:             "published parts",
		OwnerEmail:       "owner@example.org",
		PublicReadAccess: true,
	})
	assert.NoError(t, err)
	assert.NoError(t, registry.AddEntries(ctx, folder.ID, []int64{entry.ID}))

	t.Run("PublicFolderReadableByAnyone", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, anonymous, folder)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("EntryInPublicFolderReadable", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, anonymous, entry)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("PublicReadNeverConfersWrite", func(t *testing.T) {
		ok, err := engine.CanWrite(ctx, anonymous, entry)
		assert.NoError(t, err)
		assert.False(t, ok)

		ok, err = engine.CanWrite(ctx, anonymous, folder)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DemotedFolderStopsGrantingRead", func(t *testing.T) {
		assert.NoError(t, registry.SetPublicReadAccess(ctx, folder.ID, false))

		ok, err := engine.CanRead(ctx, anonymous, entry)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEngineMissingTarget(t *testing.T) {
	engine, _ := setupEngine(t)
	ctx := context.Background()
	account := model.Account{Email: "someone@example.org"}

	t.Run("ReadOnNilTargetDenies", func(t *testing.T) {
		ok, err := engine.CanRead(ctx, account, nil)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("WriteOnNilTargetErrors", func(t *testing.T) {
		ok, err := engine.CanWrite(ctx, account, nil)
		assert.ErrorIs(t, err, registry_errors.ErrTargetNotFound)
		assert.False(t, ok)
	})
}
