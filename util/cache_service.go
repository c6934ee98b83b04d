// api/util/cache_service.go

package util

import (
	"context"

	"github.com/openparts/registry/api/db"
	"github.com/openparts/registry/api/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	return db.GetCachedEntry(ctx, entryID)
}

func (c *CacheService) SetEntry(ctx context.Context, entry model.Entry) error {
	return db.CacheEntry(ctx, &entry)
}

func (c *CacheService) DeleteEntry(ctx context.Context, entryID int64) error {
	return db.DeleteCachedEntry(ctx, entryID)
}

func (c *CacheService) GetFolder(ctx context.Context, folderID string) (*model.Folder, error) {
	return db.GetCachedFolder(ctx, folderID)
}

func (c *CacheService) SetFolder(ctx context.Context, folder model.Folder) error {
	return db.CacheFolder(ctx, &folder)
}

func (c *CacheService) DeleteFolder(ctx context.Context, folderID string) error {
	return db.DeleteCachedFolder(ctx, folderID)
}

func (c *CacheService) GetAccount(ctx context.Context, email string) (*model.Account, error) {
	return db.GetCachedAccount(ctx, email)
}

func (c *CacheService) SetAccount(ctx context.Context, account model.Account) error {
	return db.CacheAccount(ctx, &account)
}

func (c *CacheService) DeleteAccount(ctx context.Context, email string) error {
	return db.DeleteCachedAccount(ctx, email)
}
