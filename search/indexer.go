// api/search/indexer.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/dao"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

const entryIndex = "registry-entries"

// rebuildPageSize bounds how many entries one store read pulls during a
// rebuild pass.
const rebuildPageSize = 500

// Scheduler accepts index-rebuild requests from mutation paths. Requests
// are fire-and-forget: scheduling never blocks the caller and a rebuild
// failure is logged, never surfaced to the mutation that asked for it.
type Scheduler interface {
	ScheduleRebuild()
	Stop()
}

// RebuildScheduler coalesces rebuild requests behind a debounce window and
// runs full index rebuilds on a single worker goroutine. A burst of sample
// saves triggers one rebuild, not one per save.
type RebuildScheduler struct {
	entryDAO dao.IEntryDAO
	esClient *elasticsearch.Client
	debounce time.Duration

	kick chan struct{}
	done chan struct{}
}

var _ Scheduler = &RebuildScheduler{}

func NewRebuildScheduler(entryDAO dao.IEntryDAO, esURL string, debounce time.Duration) (*RebuildScheduler, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	s := &RebuildScheduler{
		entryDAO: entryDAO,
		esClient: esClient,
		debounce: debounce,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s, nil
}

// ScheduleRebuild requests a rebuild. Never blocks; a request arriving
// while one is already pending folds into it.
func (s *RebuildScheduler) ScheduleRebuild() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Stop shuts the worker down. Pending requests are dropped.
func (s *RebuildScheduler) Stop() {
	close(s.done)
}

func (s *RebuildScheduler) worker() {
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
			// Let the burst finish before rebuilding.
			timer := time.NewTimer(s.debounce)
			select {
			case <-s.done:
				timer.Stop()
				return
			case <-timer.C:
			}
			s.rebuild()
		}
	}
}

// rebuild reindexes every entry. Errors abort the pass and are logged;
// the next scheduled rebuild starts from scratch anyway.
func (s *RebuildScheduler) rebuild() {
	start := time.Now()
	ctx := context.Background()
	logger.Info("Starting search index rebuild")

	indexed := 0
	for offset := 0; ; offset += rebuildPageSize {
		entries, err := s.entryDAO.ListEntries(ctx, model.EntryListCriteria{
			SortBy:    model.SortCreated,
			Ascending: true,
			Offset:    offset,
			Limit:     rebuildPageSize,
		})
		if err != nil {
			logger.Error("Search index rebuild aborted: failed to list entries",
				zap.Error(err),
				zap.Int("offset", offset))
			return
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			if err := s.indexEntry(ctx, entry); err != nil {
				logger.Error("Search index rebuild aborted: failed to index entry",
					zap.Error(err),
					zap.Int64("entryID", entry.ID))
				return
			}
			indexed++
		}
	}

	logger.Info("Search index rebuild finished",
		zap.Int("indexed", indexed),
		zap.Duration("duration", time.Since(start)))
}

func (s *RebuildScheduler) indexEntry(ctx context.Context, entry *model.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      entryIndex,
		DocumentID: entry.RecordID,
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, s.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}
