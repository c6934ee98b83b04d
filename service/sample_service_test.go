// api/service/sample_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

func TestCreateSample(t *testing.T) {
	h := newHarness(t)
	depositor := model.Account{Email: "depositor@example.org"}

	sample := h.samples.CreateSample(depositor, 7, "glycerol stock", "passage 3")
	assert.Zero(t, sample.ID)
	assert.NotEmpty(t, sample.UUID)
	assert.Equal(t, depositor.Email, sample.DepositorEmail)
	assert.Equal(t, int64(7), sample.EntryID)
	assert.Equal(t, "glycerol stock", sample.Label)
	assert.False(t, sample.CreationTime.IsZero())

	// Two builds never alias.
	other := h.samples.CreateSample(depositor, 7, "glycerol stock", "passage 3")
	assert.NotEqual(t, sample.UUID, other.UUID)
}

func TestSaveSample(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	depositor := model.Account{Email: "depositor@example.org"}

	entry := h.seedEntry(t, owner)

	t.Run("DepositorWithoutWriteDenied", func(t *testing.T) {
		// Being the depositor gives no capability on the entry.
		sample := h.samples.CreateSample(depositor, entry.ID, "orphan", "")
		_, err := h.samples.SaveSample(ctx, depositor, *sample, false)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("WriteGrantAllowsDeposit", func(t *testing.T) {
		assert.NoError(t, h.registry.AddGrant(ctx, model.AccessPermission{
			SubjectType: model.SubjectAccount,
			SubjectID:   depositor.Email,
			TargetType:  model.TargetEntry,
			TargetID:    entry.RecordID,
			Level:       model.LevelWrite,
		}))

		sample := h.samples.CreateSample(depositor, entry.ID, "aliquot", "")
		saved, err := h.samples.SaveSample(ctx, depositor, *sample, false)
		assert.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.Nil(t, saved.ModificationTime)
	})

	t.Run("BindsToExistingStorage", func(t *testing.T) {
		box, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageBox})
		assert.NoError(t, err)

		sample := h.samples.CreateSample(owner, entry.ID, "boxed", "")
		sample.StorageID = box.ID
		saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)
		assert.Equal(t, box.ID, saved.StorageID)
	})

	t.Run("MissingStorageRejected", func(t *testing.T) {
		sample := h.samples.CreateSample(owner, entry.ID, "lost", "")
		sample.StorageID = "no-such-location"
		_, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.ErrorIs(t, err, registry_errors.ErrStorageNotFound)
	})

	t.Run("InvalidSampleRejected", func(t *testing.T) {
		_, err := h.samples.SaveSample(ctx, owner, model.Sample{EntryID: entry.ID}, false)
		assert.ErrorIs(t, err, registry_errors.ErrInvalidSampleData)
	})

	t.Run("UpdateStampsModificationTime", func(t *testing.T) {
		sample := h.samples.CreateSample(owner, entry.ID, "tracked", "")
		saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)

		saved.Notes = "thawed once"
		updated, err := h.samples.SaveSample(ctx, owner, *saved, false)
		assert.NoError(t, err)
		assert.NotNil(t, updated.ModificationTime)
	})

	t.Run("RebuildOnlyWhenRequested", func(t *testing.T) {
		before := h.scheduler.Rebuilds()

		sample := h.samples.CreateSample(owner, entry.ID, "quiet", "")
		_, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)
		assert.Equal(t, before, h.scheduler.Rebuilds())

		sample = h.samples.CreateSample(owner, entry.ID, "loud", "")
		_, err = h.samples.SaveSample(ctx, owner, *sample, true)
		assert.NoError(t, err)
		assert.Equal(t, before+1, h.scheduler.Rebuilds())
	})
}

func TestDeleteSample(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}

	entry := h.seedEntry(t, owner)

	tube, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageTube})
	assert.NoError(t, err)
	shelf, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageShelf})
	assert.NoError(t, err)

	t.Run("TubeGoesWithItsSample", func(t *testing.T) {
		sample := h.samples.CreateSample(owner, entry.ID, "tubed", "")
		sample.StorageID = tube.ID
		saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)

		assert.NoError(t, h.samples.DeleteSample(ctx, owner, saved.ID, false))

		_, err = h.registry.GetSample(ctx, saved.ID)
		assert.ErrorIs(t, err, registry_errors.ErrSampleNotFound)
		_, err = h.registry.GetStorage(ctx, tube.ID)
		assert.ErrorIs(t, err, registry_errors.ErrStorageNotFound)
	})

	t.Run("SharedLocationStays", func(t *testing.T) {
		sample := h.samples.CreateSample(owner, entry.ID, "shelved", "")
		sample.StorageID = shelf.ID
		saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)

		assert.NoError(t, h.samples.DeleteSample(ctx, owner, saved.ID, false))

		_, err = h.registry.GetStorage(ctx, shelf.ID)
		assert.NoError(t, err)
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		sample := h.samples.CreateSample(owner, entry.ID, "kept", "")
		saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
		assert.NoError(t, err)

		err = h.samples.DeleteSample(ctx, model.Account{Email: "stranger@example.org"}, saved.ID, false)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("MissingSampleErrors", func(t *testing.T) {
		err := h.samples.DeleteSample(ctx, owner, 99999, false)
		assert.ErrorIs(t, err, registry_errors.ErrSampleNotFound)
	})
}

func TestGetSamplesByDepositor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	depositor := model.Account{Email: "depositor@example.org"}
	admin := model.Account{Email: "admin@example.org", IsAdmin: true}

	_, err := h.registry.SaveAccount(ctx, admin)
	assert.NoError(t, err)

	entry := h.seedEntry(t, depositor)
	for _, label := range []string{"s1", "s2", "s3"} {
		sample := h.samples.CreateSample(depositor, entry.ID, label, "")
		_, err := h.samples.SaveSample(ctx, depositor, *sample, false)
		assert.NoError(t, err)
	}

	t.Run("SelfListsOwnSamples", func(t *testing.T) {
		samples, err := h.samples.GetSamplesByDepositor(ctx, depositor, depositor.Email, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, samples, 3)
	})

	t.Run("PaginationApplies", func(t *testing.T) {
		samples, err := h.samples.GetSamplesByDepositor(ctx, depositor, depositor.Email, 1, 1)
		assert.NoError(t, err)
		assert.Len(t, samples, 1)
	})

	t.Run("OtherAccountDenied", func(t *testing.T) {
		_, err := h.samples.GetSamplesByDepositor(ctx, model.Account{Email: "nosy@example.org"}, depositor.Email, 0, 10)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("AdministratorAllowed", func(t *testing.T) {
		samples, err := h.samples.GetSamplesByDepositor(ctx, admin, depositor.Email, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, samples, 3)
	})

	t.Run("InvalidPaginationRejected", func(t *testing.T) {
		_, err := h.samples.GetSamplesByDepositor(ctx, depositor, depositor.Email, 0, 0)
		assert.ErrorIs(t, err, registry_errors.ErrInvalidPagination)
	})
}
