// api/service/entry_service_test.go
package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

func TestCreateEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}

	t.Run("AnonymousRejected", func(t *testing.T) {
		_, err := h.entries.CreateEntry(ctx, model.Account{}, model.Entry{Type: model.EntryTypePart})
		assert.ErrorIs(t, err, registry_errors.ErrUnauthorized)
	})

	t.Run("AssignsIdentityAndDefaults", func(t *testing.T) {
		created, err := h.entries.CreateEntry(ctx, owner, model.Entry{
			Type:  model.EntryTypeStrain,
			Names: []model.Name{{Name: "E. coli K-12"}},
		})
		assert.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.NotEmpty(t, created.RecordID)
		assert.NotEmpty(t, created.VersionID)
		assert.Equal(t, owner.Email, created.OwnerEmail)
		assert.Equal(t, owner.Email, created.CreatorEmail)
		assert.Equal(t, model.StatusInProgress, created.Status)
		assert.False(t, created.CreationTime.IsZero())
	})

	t.Run("GeneratesPartNumberWhenMissing", func(t *testing.T) {
		created, err := h.entries.CreateEntry(ctx, owner, model.Entry{
			Type: model.EntryTypePlasmid,
		})
		assert.NoError(t, err)
		assert.Len(t, created.PartNumbers, 1)
		assert.Equal(t, fmt.Sprintf("JBx_%06d", created.ID), created.PartNumbers[0].PartNumber)
	})

	t.Run("KeepsCallerPartNumbers", func(t *testing.T) {
		created, err := h.entries.CreateEntry(ctx, owner, model.Entry{
			Type:        model.EntryTypePlasmid,
			PartNumbers: []model.PartNumber{{PartNumber: "EXT_42"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, []model.PartNumber{{PartNumber: "EXT_42"}}, created.PartNumbers)
	})

	t.Run("InvalidTypeRejected", func(t *testing.T) {
		_, err := h.entries.CreateEntry(ctx, owner, model.Entry{Type: "organism"})
		assert.ErrorIs(t, err, registry_errors.ErrInvalidEntryData)
	})

	t.Run("SchedulesIndexRebuild", func(t *testing.T) {
		before := h.scheduler.Rebuilds()
		h.seedEntry(t, owner)
		assert.Equal(t, before+1, h.scheduler.Rebuilds())
	})
}

func TestUpdateEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}
	stranger := model.Account{Email: "stranger@example.org"}

	entry := h.seedEntry(t, owner)

	t.Run("ReplacesCollectionsInPlace", func(t *testing.T) {
		modified := *entry
		modified.Names = []model.Name{{Name: "renamed"}}
		modified.Parameters = []model.Parameter{{Key: "resistance", Value: "kanamycin"}}

		updated, err := h.entries.UpdateEntry(ctx, owner, modified)
		assert.NoError(t, err)
		assert.Equal(t, []model.Name{{Name: "renamed"}}, updated.Names)
		assert.Equal(t, []model.Parameter{{Key: "resistance", Value: "kanamycin"}}, updated.Parameters)

		stored, err := h.entries.GetEntry(ctx, owner, entry.ID)
		assert.NoError(t, err)
		assert.Equal(t, []model.Name{{Name: "renamed"}}, stored.Names)
	})

	t.Run("PreservesIdentityAndReissuesVersion", func(t *testing.T) {
		modified := *entry
		modified.RecordID = "forged-record-id"
		modified.Alias = "pX"

		updated, err := h.entries.UpdateEntry(ctx, owner, modified)
		assert.NoError(t, err)
		assert.Equal(t, entry.RecordID, updated.RecordID)
		assert.Equal(t, entry.CreationTime, updated.CreationTime)
		assert.NotEqual(t, entry.VersionID, updated.VersionID)
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		modified := *entry
		modified.Alias = "hijacked"
		_, err := h.entries.UpdateEntry(ctx, stranger, modified)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("WriteGrantSuffices", func(t *testing.T) {
		assert.NoError(t, h.registry.AddGrant(ctx, model.AccessPermission{
			SubjectType: model.SubjectAccount,
			SubjectID:   stranger.Email,
			TargetType:  model.TargetEntry,
			TargetID:    entry.RecordID,
			Level:       model.LevelWrite,
		}))

		modified := *entry
		modified.Alias = "granted"
		updated, err := h.entries.UpdateEntry(ctx, stranger, modified)
		assert.NoError(t, err)
		assert.Equal(t, "granted", updated.Alias)
	})

	t.Run("MissingEntryErrors", func(t *testing.T) {
		_, err := h.entries.UpdateEntry(ctx, owner, model.Entry{ID: 99999, Type: model.EntryTypePart, OwnerEmail: owner.Email})
		assert.ErrorIs(t, err, registry_errors.ErrEntryNotFound)
	})
}

func TestDeleteEntryCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "owner@example.org"}

	entry := h.seedEntry(t, owner)

	tube, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageTube})
	assert.NoError(t, err)
	freezer, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageFreezer})
	assert.NoError(t, err)

	tubed := h.samples.CreateSample(owner, entry.ID, "aliquot 1", "")
	tubed.StorageID = tube.ID
	savedTubed, err := h.samples.SaveSample(ctx, owner, *tubed, false)
	assert.NoError(t, err)

	frozen := h.samples.CreateSample(owner, entry.ID, "aliquot 2", "")
	frozen.StorageID = freezer.ID
	savedFrozen, err := h.samples.SaveSample(ctx, owner, *frozen, false)
	assert.NoError(t, err)

	assert.NoError(t, h.registry.AddGrant(ctx, model.AccessPermission{
		SubjectType: model.SubjectAccount,
		SubjectID:   "reader@example.org",
		TargetType:  model.TargetEntry,
		TargetID:    entry.RecordID,
		Level:       model.LevelRead,
	}))

	t.Run("StrangerDenied", func(t *testing.T) {
		err := h.entries.DeleteEntry(ctx, model.Account{Email: "stranger@example.org"}, entry.ID)
		assert.ErrorIs(t, err, registry_errors.ErrPermissionDenied)
	})

	t.Run("DeleteTakesSamplesTubesAndGrants", func(t *testing.T) {
		assert.NoError(t, h.entries.DeleteEntry(ctx, owner, entry.ID))

		_, err := h.registry.GetEntry(ctx, entry.ID)
		assert.ErrorIs(t, err, registry_errors.ErrEntryNotFound)

		_, err = h.registry.GetSample(ctx, savedTubed.ID)
		assert.ErrorIs(t, err, registry_errors.ErrSampleNotFound)
		_, err = h.registry.GetSample(ctx, savedFrozen.ID)
		assert.ErrorIs(t, err, registry_errors.ErrSampleNotFound)

		// The single-use tube goes with its sample; the freezer is shared
		// infrastructure and stays.
		_, err = h.registry.GetStorage(ctx, tube.ID)
		assert.ErrorIs(t, err, registry_errors.ErrStorageNotFound)
		_, err = h.registry.GetStorage(ctx, freezer.ID)
		assert.NoError(t, err)

		assert.Equal(t, 0, h.registry.GrantCount())
	})
}

func TestListEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := model.Account{Email: "alice@example.org"}
	bob := model.Account{Email: "bob@example.org"}

	mine := h.seedEntry(t, alice)
	h.seedEntry(t, bob)

	t.Run("InvalidPaginationRejected", func(t *testing.T) {
		_, err := h.entries.ListEntries(ctx, alice, model.EntryListCriteria{Limit: 0})
		assert.ErrorIs(t, err, registry_errors.ErrInvalidPagination)

		_, err = h.entries.ListEntries(ctx, alice, model.EntryListCriteria{Limit: 10, Offset: -1})
		assert.ErrorIs(t, err, registry_errors.ErrInvalidPagination)
	})

	t.Run("FiltersToReadableEntries", func(t *testing.T) {
		visible, err := h.entries.ListEntries(ctx, alice, model.EntryListCriteria{Limit: 10})
		assert.NoError(t, err)
		assert.Len(t, visible, 1)
		assert.Equal(t, mine.ID, visible[0].ID)
	})

	t.Run("AdministratorSeesEverything", func(t *testing.T) {
		admin := model.Account{Email: "admin@example.org", IsAdmin: true}
		_, err := h.registry.SaveAccount(ctx, admin)
		assert.NoError(t, err)

		visible, err := h.entries.ListEntries(ctx, admin, model.EntryListCriteria{Limit: 10})
		assert.NoError(t, err)
		assert.Len(t, visible, 2)
	})
}

func TestPreferredPartNumber(t *testing.T) {
	h := newHarness(t)

	t.Run("PrefersLocalPrefix", func(t *testing.T) {
		entry := &model.Entry{PartNumbers: []model.PartNumber{
			{PartNumber: "EXT_7"},
			{PartNumber: "JBx_000042"},
		}}
		assert.Equal(t, "JBx_000042", h.entries.PreferredPartNumber(entry))
	})

	t.Run("FallsBackToFirst", func(t *testing.T) {
		entry := &model.Entry{PartNumbers: []model.PartNumber{
			{PartNumber: "EXT_7"},
			{PartNumber: "EXT_8"},
		}}
		assert.Equal(t, "EXT_7", h.entries.PreferredPartNumber(entry))
	})

	t.Run("EmptyWithoutNumbers", func(t *testing.T) {
		assert.Equal(t, "", h.entries.PreferredPartNumber(&model.Entry{}))
		assert.Equal(t, "", h.entries.PreferredPartNumber(nil))
	})
}
