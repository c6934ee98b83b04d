// api/dao/sample_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/audit"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	registry_graph "github.com/openparts/registry/api/model/graph"
	helper_util "github.com/openparts/registry/api/util/helper"
)

type SampleDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

var _ ISampleDAO = &SampleDAO{}

func NewSampleDAO(driver neo4j.Driver, auditService audit.Service) *SampleDAO {
	dao := &SampleDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Sample", zap.Error(err))
	}
	return dao
}

func (dao *SampleDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_sample_uuid IF NOT EXISTS
        FOR (s:` + registry_graph.LabelSample + `) REQUIRE s.uuid IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Sample uuid", zap.Error(err))
		return err
	}

	return nil
}

// SaveSample creates the sample when its id is zero and updates it
// otherwise. On create the sample is bound to its entry; in both cases the
// storage edge is rebound to whatever StorageID names, or dropped when it
// is empty.
func (dao *SampleDAO) SaveSample(ctx context.Context, sample model.Sample) (*model.Sample, error) {
	start := time.Now()
	creating := sample.ID == 0
	logger.Info("Saving sample",
		zap.Int64("sampleID", sample.ID),
		zap.Int64("entryID", sample.EntryID),
		zap.Bool("creating", creating))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		var saved *model.Sample
		if creating {
			query := `
            MERGE (c:` + registry_graph.LabelSequence + ` {name: $sequence})
            ON CREATE SET c.value = 0
            SET c.value = c.value + 1
            WITH c.value AS newID
            MATCH (e:` + registry_graph.LabelEntry + ` {id: $entryId})
            CREATE (s:` + registry_graph.LabelSample + ` {id: newID, uuid: $uuid})
            SET s += $props
            CREATE (s)-[:` + registry_graph.RelSampleOf + `]->(e)
            RETURN s
            `
			result, err := transaction.Run(query, map[string]interface{}{
				"sequence": registry_graph.SeqSamples,
				"entryId":  sample.EntryID,
				"uuid":     sample.UUID,
				"props":    sampleProps(sample),
			})
			if err != nil {
				return nil, registry_errors.ErrDatabaseOperation
			}
			if !result.Next() {
				// the MATCH on the entry failed
				return nil, registry_errors.ErrEntryNotFound
			}
			node := result.Record().Values[0].(neo4j.Node)
			saved = mapNodeToSample(node)
		} else {
			query := `
            MATCH (s:` + registry_graph.LabelSample + ` {id: $id})
            SET s += $props
            RETURN s
            `
			result, err := transaction.Run(query, map[string]interface{}{
				"id":    sample.ID,
				"props": sampleProps(sample),
			})
			if err != nil {
				return nil, registry_errors.ErrDatabaseOperation
			}
			if !result.Next() {
				return nil, registry_errors.ErrSampleNotFound
			}
			node := result.Record().Values[0].(neo4j.Node)
			saved = mapNodeToSample(node)
		}

		// Rebind the storage edge to match StorageID.
		unbind := `
        MATCH (s:` + registry_graph.LabelSample + ` {id: $id})-[r:` + registry_graph.RelStoredIn + `]->()
        DELETE r
        `
		if _, err := transaction.Run(unbind, map[string]interface{}{"id": saved.ID}); err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}

		if sample.StorageID != "" {
			bind := `
            MATCH (s:` + registry_graph.LabelSample + ` {id: $id})
            MATCH (st:` + registry_graph.LabelStorage + ` {id: $storageId})
            MERGE (s)-[:` + registry_graph.RelStoredIn + `]->(st)
            RETURN st
            `
			result, err := transaction.Run(bind, map[string]interface{}{
				"id":        saved.ID,
				"storageId": sample.StorageID,
			})
			if err != nil {
				return nil, registry_errors.ErrDatabaseOperation
			}
			if !result.Next() {
				return nil, registry_errors.ErrStorageNotFound
			}
		}

		return saved, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to save sample",
			zap.Error(err),
			zap.Int64("sampleID", sample.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	saved := result.(*model.Sample)
	logger.Info("Sample saved successfully",
		zap.Int64("sampleID", saved.ID),
		zap.Duration("duration", duration))

	action := "UPDATE_SAMPLE"
	if creating {
		action = "CREATE_SAMPLE"
	}
	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     action,
		TargetType: "sample",
		TargetID:   saved.UUID,
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return saved, nil
}

// DeleteSample removes the sample and, when deleteStorage is set, the
// storage node it occupied, in one transaction.
func (dao *SampleDAO) DeleteSample(ctx context.Context, sampleID int64, deleteStorage bool) error {
	start := time.Now()
	logger.Info("Deleting sample",
		zap.Int64("sampleID", sampleID),
		zap.Bool("deleteStorage", deleteStorage))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:` + registry_graph.LabelSample + ` {id: $id})
        OPTIONAL MATCH (s)-[:` + registry_graph.RelStoredIn + `]->(st:` + registry_graph.LabelStorage + `)
        WITH s, CASE WHEN $deleteStorage THEN st ELSE NULL END AS doomed
        DETACH DELETE s, doomed
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            sampleID,
			"deleteStorage": deleteStorage,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}

		summary, err := result.Consume()
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, registry_errors.ErrSampleNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete sample",
			zap.Error(err),
			zap.Int64("sampleID", sampleID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Sample deleted successfully",
		zap.Int64("sampleID", sampleID),
		zap.Duration("duration", duration))

	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     "DELETE_SAMPLE",
		TargetType: "sample",
		TargetID:   fmt.Sprintf("%d", sampleID),
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

func (dao *SampleDAO) GetSample(ctx context.Context, sampleID int64) (*model.Sample, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (s:` + registry_graph.LabelSample + ` {id: $id})
	RETURN s
	`
	result, err := session.Run(query, map[string]interface{}{"id": sampleID})
	if err != nil {
		logger.Error("Failed to execute get sample query", zap.Error(err), zap.Int64("sampleID", sampleID))
		return nil, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToSample(node), nil
	}
	return nil, registry_errors.ErrSampleNotFound
}

func (dao *SampleDAO) GetSamplesByEntry(ctx context.Context, entryID int64) ([]*model.Sample, error) {
	query := `
	MATCH (s:` + registry_graph.LabelSample + `)-[:` + registry_graph.RelSampleOf + `]->(e:` + registry_graph.LabelEntry + ` {id: $entryId})
	RETURN s
	ORDER BY s.creationTime
	`
	return dao.runSampleQuery(ctx, query, map[string]interface{}{"entryId": entryID})
}

func (dao *SampleDAO) GetSamplesByDepositor(ctx context.Context, depositorEmail string, offset, limit int) ([]*model.Sample, error) {
	query := `
	MATCH (s:` + registry_graph.LabelSample + ` {depositorEmail: $email})
	RETURN s
	ORDER BY s.creationTime DESC
	SKIP $offset
	LIMIT $limit
	`
	return dao.runSampleQuery(ctx, query, map[string]interface{}{
		"email":  depositorEmail,
		"offset": offset,
		"limit":  limit,
	})
}

func (dao *SampleDAO) GetSamplesByStorage(ctx context.Context, storageID string) ([]*model.Sample, error) {
	query := `
	MATCH (s:` + registry_graph.LabelSample + `)-[:` + registry_graph.RelStoredIn + `]->(st:` + registry_graph.LabelStorage + ` {id: $storageId})
	RETURN s
	ORDER BY s.id
	`
	return dao.runSampleQuery(ctx, query, map[string]interface{}{"storageId": storageID})
}

func (dao *SampleDAO) GetSamplesByIDSet(ctx context.Context, ids []int64, ascending bool) ([]*model.Sample, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := `
	MATCH (s:` + registry_graph.LabelSample + `)
	WHERE s.id IN $ids
	RETURN s
	ORDER BY s.id ` + order + `
	`
	return dao.runSampleQuery(ctx, query, map[string]interface{}{"ids": ids})
}

func (dao *SampleDAO) GetSampleIDsByDepositor(ctx context.Context, depositorEmail string, field model.SortField, ascending bool) ([]int64, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	order := "DESC"
	if ascending {
		order = "ASC"
	}

	query := `
	MATCH (s:` + registry_graph.LabelSample + ` {depositorEmail: $email})
	RETURN s.id AS id
	ORDER BY s.` + sampleSortProperty(field) + ` ` + order + `
	`
	result, err := session.Run(query, map[string]interface{}{"email": depositorEmail})
	if err != nil {
		return nil, registry_errors.ErrDatabaseOperation
	}

	var ids []int64
	for result.Next() {
		id, _ := result.Record().Get("id")
		ids = append(ids, id.(int64))
	}
	return ids, nil
}

func (dao *SampleDAO) GetSampleCountByDepositor(ctx context.Context, depositorEmail string) (int, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (s:` + registry_graph.LabelSample + ` {depositorEmail: $email})
	RETURN count(s) AS total
	`
	result, err := session.Run(query, map[string]interface{}{"email": depositorEmail})
	if err != nil {
		return 0, registry_errors.ErrDatabaseOperation
	}
	if result.Next() {
		total, _ := result.Record().Get("total")
		return int(total.(int64)), nil
	}
	return 0, nil
}

func (dao *SampleDAO) HasSample(ctx context.Context, entryID int64) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (s:` + registry_graph.LabelSample + `)-[:` + registry_graph.RelSampleOf + `]->(e:` + registry_graph.LabelEntry + ` {id: $entryId})
	RETURN count(s) > 0 AS present
	`
	result, err := session.Run(query, map[string]interface{}{"entryId": entryID})
	if err != nil {
		return false, registry_errors.ErrDatabaseOperation
	}
	if result.Next() {
		present, _ := result.Record().Get("present")
		return present.(bool), nil
	}
	return false, nil
}

func (dao *SampleDAO) runSampleQuery(ctx context.Context, query string, params map[string]interface{}) ([]*model.Sample, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.Run(query, params)
	if err != nil {
		logger.Error("Failed to execute sample query", zap.Error(err))
		return nil, registry_errors.ErrDatabaseOperation
	}

	var samples []*model.Sample
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		samples = append(samples, mapNodeToSample(node))
	}
	return samples, nil
}

// sampleSortProperty maps the sort-field set onto sample node properties.
// STATUS has no sample meaning and falls back to creation time.
func sampleSortProperty(field model.SortField) string {
	if field == model.SortName {
		return "label"
	}
	return "creationTime"
}

func sampleProps(sample model.Sample) map[string]interface{} {
	props := map[string]interface{}{
		"label":          sample.Label,
		"depositorEmail": sample.DepositorEmail,
		"notes":          sample.Notes,
		"entryId":        sample.EntryID,
		"storageId":      sample.StorageID,
	}
	if !sample.CreationTime.IsZero() {
		props["creationTime"] = helper_util.FormatTime(sample.CreationTime)
	}
	if sample.ModificationTime != nil {
		props["modificationTime"] = helper_util.FormatTime(*sample.ModificationTime)
	}
	return props
}

// Helper function to map a Neo4j Node to a Sample struct
func mapNodeToSample(node neo4j.Node) *model.Sample {
	props := node.Props

	sample := &model.Sample{
		ID:   props["id"].(int64),
		UUID: props["uuid"].(string),
	}
	if v, ok := props["label"].(string); ok {
		sample.Label = v
	}
	if v, ok := props["depositorEmail"].(string); ok {
		sample.DepositorEmail = v
	}
	if v, ok := props["notes"].(string); ok {
		sample.Notes = v
	}
	if v, ok := props["entryId"].(int64); ok {
		sample.EntryID = v
	}
	if v, ok := props["storageId"].(string); ok {
		sample.StorageID = v
	}
	if v, ok := props["creationTime"].(string); ok {
		sample.CreationTime, _ = helper_util.ParseTime(v)
	}
	if v, ok := props["modificationTime"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			sample.ModificationTime = &t
		}
	}
	return sample
}
