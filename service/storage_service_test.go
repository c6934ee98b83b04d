// api/service/storage_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	registry_errors "github.com/openparts/registry/api/errors"
	"github.com/openparts/registry/api/model"
)

func TestCreateStorage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "tech@example.org"}

	t.Run("AnonymousRejected", func(t *testing.T) {
		_, err := h.storages.CreateStorage(ctx, model.Account{}, model.Storage{Type: model.StorageBox})
		assert.ErrorIs(t, err, registry_errors.ErrUnauthorized)
	})

	t.Run("AssignsIDAndOwner", func(t *testing.T) {
		created, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageFreezer, Name: "-80 A"})
		assert.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, owner.Email, created.OwnerEmail)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		_, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: "DRAWER"})
		assert.ErrorIs(t, err, registry_errors.ErrInvalidStorageData)
	})

	t.Run("MissingParentRejected", func(t *testing.T) {
		_, err := h.storages.CreateStorage(ctx, owner, model.Storage{
			Type:     model.StorageBox,
			ParentID: "no-such-location",
		})
		assert.ErrorIs(t, err, registry_errors.ErrStorageNotFound)
	})
}

func TestStorageHierarchy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "tech@example.org"}

	freezer, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageFreezer})
	assert.NoError(t, err)

	shelfB, err := h.storages.CreateStorage(ctx, owner, model.Storage{
		Type: model.StorageShelf, Index: "B", ParentID: freezer.ID,
	})
	assert.NoError(t, err)
	shelfA, err := h.storages.CreateStorage(ctx, owner, model.Storage{
		Type: model.StorageShelf, Index: "A", ParentID: freezer.ID,
	})
	assert.NoError(t, err)

	children, err := h.storages.GetChildren(ctx, freezer.ID)
	assert.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Equal(t, shelfA.ID, children[0].ID)
	assert.Equal(t, shelfB.ID, children[1].ID)
}

func TestDeleteStorage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := model.Account{Email: "tech@example.org"}

	entry := h.seedEntry(t, owner)
	box, err := h.storages.CreateStorage(ctx, owner, model.Storage{Type: model.StorageBox})
	assert.NoError(t, err)

	sample := h.samples.CreateSample(owner, entry.ID, "occupant", "")
	sample.StorageID = box.ID
	saved, err := h.samples.SaveSample(ctx, owner, *sample, false)
	assert.NoError(t, err)

	t.Run("OccupiedLocationRefused", func(t *testing.T) {
		err := h.storages.DeleteStorage(ctx, owner, box.ID)
		assert.ErrorIs(t, err, registry_errors.ErrInvalidStorageData)
	})

	t.Run("EmptyLocationDeleted", func(t *testing.T) {
		assert.NoError(t, h.samples.DeleteSample(ctx, owner, saved.ID, false))
		assert.NoError(t, h.storages.DeleteStorage(ctx, owner, box.ID))

		_, err := h.storages.GetStorage(ctx, box.ID)
		assert.ErrorIs(t, err, registry_errors.ErrStorageNotFound)
	})

	t.Run("AnonymousRejected", func(t *testing.T) {
		err := h.storages.DeleteStorage(ctx, model.Account{}, "anything")
		assert.ErrorIs(t, err, registry_errors.ErrUnauthorized)
	})
}
