// test/mock/entry_service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/openparts/registry/api/model"
)

// MockEntryService is a mock implementation of service.IEntryService
type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) CreateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error) {
	args := m.Called(ctx, account, entry)
	if created := args.Get(0); created != nil {
		return created.(*model.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntryService) UpdateEntry(ctx context.Context, account model.Account, entry model.Entry) (*model.Entry, error) {
	args := m.Called(ctx, account, entry)
	if updated := args.Get(0); updated != nil {
		return updated.(*model.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntryService) DeleteEntry(ctx context.Context, account model.Account, entryID int64) error {
	args := m.Called(ctx, account, entryID)
	return args.Error(0)
}

func (m *MockEntryService) GetEntry(ctx context.Context, account model.Account, entryID int64) (*model.Entry, error) {
	args := m.Called(ctx, account, entryID)
	if entry := args.Get(0); entry != nil {
		return entry.(*model.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntryService) GetEntryByRecordID(ctx context.Context, account model.Account, recordID string) (*model.Entry, error) {
	args := m.Called(ctx, account, recordID)
	if entry := args.Get(0); entry != nil {
		return entry.(*model.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntryService) ListEntries(ctx context.Context, account model.Account, criteria model.EntryListCriteria) ([]*model.Entry, error) {
	args := m.Called(ctx, account, criteria)
	if entries := args.Get(0); entries != nil {
		return entries.([]*model.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntryService) PreferredPartNumber(entry *model.Entry) string {
	args := m.Called(entry)
	return args.String(0)
}
