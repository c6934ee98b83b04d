// api/dao/folder_dao.go
package dao

import (
	"context"
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

type FolderDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

var _ IFolderDAO = &FolderDAO{}

func NewFolderDAO(driver neo4j.Driver, auditService audit.Service) *FolderDAO {
	dao := &FolderDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Folder", zap.Error(err))
	}
	return dao
}

func (dao *FolderDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_folder_id IF NOT EXISTS
        FOR (f:` + registry_graph.LabelFolder + `) REQUIRE f.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Folder id", zap.Error(err))
		return err
	}

	return nil
}

func (dao *FolderDAO) CreateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error) {
	start := time.Now()
	logger.Info("Creating folder", zap.String("folderID", folder.ID), zap.String("name", folder.Name))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE (f:` + registry_graph.LabelFolder + ` {id: $id})
        SET f += $props
        RETURN f
        `
		props := folderProps(folder)
		props["creationTime"] = helper_util.FormatTime(folder.CreationTime)

		result, err := transaction.Run(query, map[string]interface{}{
			"id":    folder.ID,
			"props": props,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToFolder(node), nil
		}
		return nil, registry_errors.ErrDatabaseOperation
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create folder",
			zap.Error(err),
			zap.String("folderID", folder.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	created := result.(*model.Folder)
	logger.Info("Folder created successfully",
		zap.String("folderID", created.ID),
		zap.Duration("duration", duration))

	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     "CREATE_FOLDER",
		TargetType: string(model.TargetFolder),
		TargetID:   created.ID,
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return created, nil
}

// GetFolder returns the folder with its member entry ids in folder order.
func (dao *FolderDAO) GetFolder(ctx context.Context, folderID string) (*model.Folder, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})
	OPTIONAL MATCH (f)-[c:` + registry_graph.RelContains + `]->(e:` + registry_graph.LabelEntry + `)
	WITH f, e, c
	ORDER BY c.order
	RETURN f, collect(e.id) AS entryIds
	`
	result, err := session.Run(query, map[string]interface{}{"id": folderID})
	if err != nil {
		logger.Error("Failed to execute get folder query", zap.Error(err), zap.String("folderID", folderID))
		return nil, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		record := result.Record()
		node := record.Values[0].(neo4j.Node)
		folder := mapNodeToFolder(node)
		rawIDs, _ := record.Get("entryIds")
		for _, raw := range rawIDs.([]interface{}) {
			folder.EntryIDs = append(folder.EntryIDs, raw.(int64))
		}
		return folder, nil
	}
	return nil, registry_errors.ErrFolderNotFound
}

func (dao *FolderDAO) UpdateFolder(ctx context.Context, folder model.Folder) (*model.Folder, error) {
	start := time.Now()
	logger.Info("Updating folder", zap.String("folderID", folder.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})
        SET f += $props
        RETURN f
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":    folder.ID,
			"props": folderProps(folder),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToFolder(node), nil
		}
		return nil, registry_errors.ErrFolderNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update folder",
			zap.Error(err),
			zap.String("folderID", folder.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Folder updated successfully",
		zap.String("folderID", folder.ID),
		zap.Duration("duration", duration))
	return result.(*model.Folder), nil
}

func (dao *FolderDAO) DeleteFolder(ctx context.Context, folderID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})
        DETACH DELETE f
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": folderID})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, registry_errors.ErrFolderNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to delete folder", zap.Error(err), zap.String("folderID", folderID))
		return err
	}

	logger.Info("Folder deleted successfully", zap.String("folderID", folderID))

	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     "DELETE_FOLDER",
		TargetType: string(model.TargetFolder),
		TargetID:   folderID,
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

// AddEntries appends the entries to the folder in the given order. Entries
// already in the folder keep their position; MERGE makes re-adding a no-op.
func (dao *FolderDAO) AddEntries(ctx context.Context, folderID string, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (f:` + registry_graph.LabelFolder + ` {id: $folderId})
        OPTIONAL MATCH (f)-[existing:` + registry_graph.RelContains + `]->()
        WITH f, count(existing) AS base
        UNWIND range(0, size($entryIds) - 1) AS i
        MATCH (e:` + registry_graph.LabelEntry + `)
        WHERE e.id = $entryIds[i]
        MERGE (f)-[c:` + registry_graph.RelContains + `]->(e)
        ON CREATE SET c.order = base + i
        SET f.modificationTime = $now
        RETURN count(c) AS linked
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"folderId": folderID,
			"entryIds": entryIDs,
			"now":      helper_util.FormatTime(time.Now()),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, registry_errors.ErrFolderNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to add entries to folder",
			zap.Error(err),
			zap.String("folderID", folderID),
			zap.Int("count", len(entryIDs)))
		return err
	}

	logger.Info("Entries added to folder",
		zap.String("folderID", folderID),
		zap.Int("count", len(entryIDs)))
	return nil
}

func (dao *FolderDAO) RemoveEntries(ctx context.Context, folderID string, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (f:` + registry_graph.LabelFolder + ` {id: $folderId})
        SET f.modificationTime = $now
        WITH f
        MATCH (f)-[c:` + registry_graph.RelContains + `]->(e:` + registry_graph.LabelEntry + `)
        WHERE e.id IN $entryIds
        DELETE c
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"folderId": folderID,
			"entryIds": entryIDs,
			"now":      helper_util.FormatTime(time.Now()),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if summary.Counters().PropertiesSet() == 0 {
			return nil, registry_errors.ErrFolderNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to remove entries from folder",
			zap.Error(err),
			zap.String("folderID", folderID),
			zap.Int("count", len(entryIDs)))
		return err
	}

	logger.Info("Entries removed from folder",
		zap.String("folderID", folderID),
		zap.Int("count", len(entryIDs)))
	return nil
}

// GetContents returns the folder's entries in folder order.
func (dao *FolderDAO) GetContents(ctx context.Context, folderID string) ([]*model.Entry, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	exists := `
	MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})
	RETURN f.id
	`
	result, err := session.Run(exists, map[string]interface{}{"id": folderID})
	if err != nil {
		return nil, registry_errors.ErrDatabaseOperation
	}
	if !result.Next() {
		return nil, registry_errors.ErrFolderNotFound
	}

	query := `
	MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})-[c:` + registry_graph.RelContains + `]->(e:` + registry_graph.LabelEntry + `)
	RETURN e
	ORDER BY c.order
	`
	result, err = session.Run(query, map[string]interface{}{"id": folderID})
	if err != nil {
		return nil, registry_errors.ErrDatabaseOperation
	}

	var entries []*model.Entry
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		entry, err := mapNodeToEntry(node)
		if err != nil {
			logger.Error("Failed to map entry node to struct", zap.Error(err))
			return nil, registry_errors.ErrInternalServer
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (dao *FolderDAO) GetFoldersContainingEntry(ctx context.Context, entryID int64) ([]*model.Folder, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (f:` + registry_graph.LabelFolder + `)-[:` + registry_graph.RelContains + `]->(e:` + registry_graph.LabelEntry + ` {id: $entryId})
	RETURN f
	ORDER BY f.name
	`
	result, err := session.Run(query, map[string]interface{}{"entryId": entryID})
	if err != nil {
		return nil, registry_errors.ErrDatabaseOperation
	}

	var folders []*model.Folder
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		folders = append(folders, mapNodeToFolder(node))
	}
	return folders, nil
}

func (dao *FolderDAO) HasPublicReadFolder(ctx context.Context, entryID int64) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (f:` + registry_graph.LabelFolder + ` {publicReadAccess: true})-[:` + registry_graph.RelContains + `]->(e:` + registry_graph.LabelEntry + ` {id: $entryId})
	RETURN count(f) > 0 AS public
	`
	result, err := session.Run(query, map[string]interface{}{"entryId": entryID})
	if err != nil {
		return false, registry_errors.ErrDatabaseOperation
	}
	if result.Next() {
		public, _ := result.Record().Get("public")
		return public.(bool), nil
	}
	return false, nil
}

func (dao *FolderDAO) SetPublicReadAccess(ctx context.Context, folderID string, public bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (f:` + registry_graph.LabelFolder + ` {id: $id})
        SET f.publicReadAccess = $public, f.modificationTime = $now
        RETURN f
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":     folderID,
			"public": public,
			"now":    helper_util.FormatTime(time.Now()),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, registry_errors.ErrFolderNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to set public read access",
			zap.Error(err),
			zap.String("folderID", folderID),
			zap.Bool("public", public))
		return err
	}

	logger.Info("Public read access updated",
		zap.String("folderID", folderID),
		zap.Bool("public", public))
	return nil
}

func folderProps(folder model.Folder) map[string]interface{} {
	return map[string]interface{}{
		"name":                folder.Name,
		"description":         folder.Description,
		"ownerEmail":          folder.OwnerEmail,
		"propagatePermission": folder.PropagatePermission,
		"publicReadAccess":    folder.PublicReadAccess,
		"modificationTime":    helper_util.FormatTime(folder.ModificationTime),
	}
}

// Helper function to map a Neo4j Node to a Folder struct
func mapNodeToFolder(node neo4j.Node) *model.Folder {
	props := node.Props

	folder := &model.Folder{
		ID: props["id"].(string),
	}
	if v, ok := props["name"].(string); ok {
		folder.Name = v
	}
	if v, ok := props["description"].(string); ok {
		folder.Description = v
	}
	if v, ok := props["ownerEmail"].(string); ok {
		folder.OwnerEmail = v
	}
	if v, ok := props["propagatePermission"].(bool); ok {
		folder.PropagatePermission = v
	}
	if v, ok := props["publicReadAccess"].(bool); ok {
		folder.PublicReadAccess = v
	}
	if v, ok := props["creationTime"].(string); ok {
		folder.CreationTime, _ = helper_util.ParseTime(v)
	}
	if v, ok := props["modificationTime"].(string); ok {
		folder.ModificationTime, _ = helper_util.ParseTime(v)
	}
	return folder
}
