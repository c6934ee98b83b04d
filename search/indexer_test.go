// api/search/indexer_test.go
package search_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	"github.com/openparts/registry/api/search"
)

// countingEntryDAO records rebuild passes: the first page read of a pass is
// its only store access when the registry is empty.
type countingEntryDAO struct {
	listCalls int64
}

func (d *countingEntryDAO) ListEntries(ctx context.Context, criteria model.EntryListCriteria) ([]*model.Entry, error) {
	atomic.AddInt64(&d.listCalls, 1)
	return nil, nil
}

func (d *countingEntryDAO) CreateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	return nil, nil
}

func (d *countingEntryDAO) UpdateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	return nil, nil
}

func (d *countingEntryDAO) DeleteEntry(ctx context.Context, entryID int64) error { return nil }

func (d *countingEntryDAO) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	return nil, nil
}

func (d *countingEntryDAO) GetEntryByRecordID(ctx context.Context, recordID string) (*model.Entry, error) {
	return nil, nil
}

func (d *countingEntryDAO) CountEntries(ctx context.Context) (int64, error) { return 0, nil }

func (d *countingEntryDAO) calls() int64 {
	return atomic.LoadInt64(&d.listCalls)
}

func waitForCalls(t *testing.T, dao *countingEntryDAO, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dao.calls() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d rebuild passes, saw %d", want, dao.calls())
}

func TestRebuildSchedulerCoalescesBursts(t *testing.T) {
	logger.InitLogger("../logging")

	dao := &countingEntryDAO{}
	scheduler, err := search.NewRebuildScheduler(dao, "http://localhost:9200", 50*time.Millisecond)
	assert.NoError(t, err)
	defer scheduler.Stop()

	// A burst of requests inside the debounce window folds into one pass.
	for i := 0; i < 5; i++ {
		scheduler.ScheduleRebuild()
	}

	waitForCalls(t, dao, 1)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(1), dao.calls())

	// A later request starts a fresh pass.
	scheduler.ScheduleRebuild()
	waitForCalls(t, dao, 2)
}

func TestRebuildSchedulerStops(t *testing.T) {
	logger.InitLogger("../logging")

	dao := &countingEntryDAO{}
	scheduler, err := search.NewRebuildScheduler(dao, "http://localhost:9200", time.Hour)
	assert.NoError(t, err)

	scheduler.ScheduleRebuild()
	scheduler.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), dao.calls())
}
