// api/dao/storage_dao.go
package dao

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	registry_graph "github.com/openparts/registry/api/model/graph"
	helper_util "github.com/openparts/registry/api/util/helper"
)

type StorageDAO struct {
	Driver neo4j.Driver
}

var _ IStorageDAO = &StorageDAO{}

func NewStorageDAO(driver neo4j.Driver) *StorageDAO {
	dao := &StorageDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Storage", zap.Error(err))
	}
	return dao
}

func (dao *StorageDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_storage_id IF NOT EXISTS
        FOR (st:` + registry_graph.LabelStorage + `) REQUIRE st.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Storage id", zap.Error(err))
		return err
	}

	return nil
}

// SaveStorage upserts a storage location. When ParentID is set the location
// is nested under its parent, which must already exist.
func (dao *StorageDAO) SaveStorage(ctx context.Context, storage model.Storage) (*model.Storage, error) {
	start := time.Now()
	logger.Info("Saving storage",
		zap.String("storageID", storage.ID),
		zap.String("type", string(storage.Type)))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (st:` + registry_graph.LabelStorage + ` {id: $id})
        SET st += $props
        RETURN st
        `
		props := map[string]interface{}{
			"name":       storage.Name,
			"type":       string(storage.Type),
			"index":      storage.Index,
			"parentId":   storage.ParentID,
			"ownerEmail": storage.OwnerEmail,
		}
		if !storage.CreatedAt.IsZero() {
			props["createdAt"] = helper_util.FormatTime(storage.CreatedAt)
		}

		result, err := transaction.Run(query, map[string]interface{}{
			"id":    storage.ID,
			"props": props,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, registry_errors.ErrDatabaseOperation
		}
		node := result.Record().Values[0].(neo4j.Node)
		saved := mapNodeToStorage(node)

		if storage.ParentID != "" {
			nest := `
            MATCH (st:` + registry_graph.LabelStorage + ` {id: $id})
            MATCH (p:` + registry_graph.LabelStorage + ` {id: $parentId})
            MERGE (st)-[:` + registry_graph.RelWithin + `]->(p)
            RETURN p
            `
			result, err := transaction.Run(nest, map[string]interface{}{
				"id":       storage.ID,
				"parentId": storage.ParentID,
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
		logger.Error("Failed to save storage",
			zap.Error(err),
			zap.String("storageID", storage.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Storage saved successfully",
		zap.String("storageID", storage.ID),
		zap.Duration("duration", duration))
	return result.(*model.Storage), nil
}

func (dao *StorageDAO) GetStorage(ctx context.Context, storageID string) (*model.Storage, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (st:` + registry_graph.LabelStorage + ` {id: $id})
	RETURN st
	`
	result, err := session.Run(query, map[string]interface{}{"id": storageID})
	if err != nil {
		logger.Error("Failed to execute get storage query", zap.Error(err), zap.String("storageID", storageID))
		return nil, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToStorage(node), nil
	}
	return nil, registry_errors.ErrStorageNotFound
}

func (dao *StorageDAO) DeleteStorage(ctx context.Context, storageID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (st:` + registry_graph.LabelStorage + ` {id: $id})
        DETACH DELETE st
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": storageID})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, registry_errors.ErrStorageNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to delete storage", zap.Error(err), zap.String("storageID", storageID))
		return err
	}

	logger.Info("Storage deleted successfully", zap.String("storageID", storageID))
	return nil
}

func (dao *StorageDAO) GetChildren(ctx context.Context, parentID string) ([]*model.Storage, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (c:` + registry_graph.LabelStorage + `)-[:` + registry_graph.RelWithin + `]->(p:` + registry_graph.LabelStorage + ` {id: $parentId})
	RETURN c
	ORDER BY c.index
	`
	result, err := session.Run(query, map[string]interface{}{"parentId": parentID})
	if err != nil {
		return nil, registry_errors.ErrDatabaseOperation
	}

	var children []*model.Storage
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		children = append(children, mapNodeToStorage(node))
	}
	return children, nil
}

// Helper function to map a Neo4j Node to a Storage struct
func mapNodeToStorage(node neo4j.Node) *model.Storage {
	props := node.Props

	storage := &model.Storage{
		ID: props["id"].(string),
	}
	if v, ok := props["name"].(string); ok {
		storage.Name = v
	}
	if v, ok := props["type"].(string); ok {
		storage.Type = model.StorageType(v)
	}
	if v, ok := props["index"].(string); ok {
		storage.Index = v
	}
	if v, ok := props["parentId"].(string); ok {
		storage.ParentID = v
	}
	if v, ok := props["ownerEmail"].(string); ok {
		storage.OwnerEmail = v
	}
	if v, ok := props["createdAt"].(string); ok {
		storage.CreatedAt, _ = helper_util.ParseTime(v)
	}
	return storage
}
