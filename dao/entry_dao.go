// api/dao/entry_dao.go
package dao

import (
	"context"
	"encoding/json"
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

type EntryDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

var _ IEntryDAO = &EntryDAO{}

func NewEntryDAO(driver neo4j.Driver, auditService audit.Service) *EntryDAO {
	dao := &EntryDAO{Driver: driver, AuditService: auditService}
	// Ensure unique constraint on Entry recordId
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Entry", zap.Error(err))
	}
	return dao
}

func (dao *EntryDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Entry recordId")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_entry_record_id IF NOT EXISTS
        FOR (e:` + registry_graph.LabelEntry + `) REQUIRE e.recordId IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Entry recordId", zap.Error(err))
		return err
	}

	return nil
}

// CreateEntry persists the entry and its owned collections as one aggregate.
// The numeric id comes from the entries sequence inside the same write
// transaction, so a failed create never burns a visible id.
func (dao *EntryDAO) CreateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	start := time.Now()
	logger.Info("Creating new entry", zap.String("recordID", entry.RecordID), zap.String("type", string(entry.Type)))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
            MERGE (c:` + registry_graph.LabelSequence + ` {name: $sequence})
            ON CREATE SET c.value = 0
            SET c.value = c.value + 1
            WITH c.value AS newID
            CREATE (e:` + registry_graph.LabelEntry + ` {id: newID, recordId: $recordId})
            SET e += $props
            RETURN e
        `

		props, err := entryProps(entry)
		if err != nil {
			return nil, err
		}
		props["creationTime"] = helper_util.FormatTime(entry.CreationTime)

		result, err := transaction.Run(query, map[string]interface{}{
			"sequence": registry_graph.SeqEntries,
			"recordId": entry.RecordID,
			"props":    props,
		})
		if err != nil {
			logger.Error("Failed to execute query", zap.Error(err))
			return nil, registry_errors.ErrDatabaseOperation
		}

		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToEntry(node)
		}

		return nil, fmt.Errorf("no results returned")
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create entry",
			zap.Error(err),
			zap.String("recordID", entry.RecordID),
			zap.Duration("duration", duration))
		return nil, err
	}

	created := result.(*model.Entry)
	logger.Info("Entry created successfully",
		zap.Int64("entryID", created.ID),
		zap.Duration("duration", duration))

	// Audit trail
	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     "CREATE_ENTRY",
		TargetType: string(model.TargetEntry),
		TargetID:   created.RecordID,
		ChangeDetails: createEntryChangeDetails(nil, created),
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return created, nil
}

// UpdateEntry rewrites the entry's mutable fields and owned collections.
// Owned collections are stored on the aggregate and replaced in place, so
// sub-items missing from the provided entry are gone after the update.
func (dao *EntryDAO) UpdateEntry(ctx context.Context, entry model.Entry) (*model.Entry, error) {
	start := time.Now()
	logger.Info("Updating entry", zap.Int64("entryID", entry.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldEntry, err := dao.GetEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (e:` + registry_graph.LabelEntry + ` {id: $id})
        SET e += $props
        RETURN e
        `

		props, err := entryProps(entry)
		if err != nil {
			return nil, err
		}

		result, err := transaction.Run(query, map[string]interface{}{
			"id":    entry.ID,
			"props": props,
		})
		if err != nil {
			logger.Error("Failed to execute query", zap.Error(err))
			return nil, registry_errors.ErrDatabaseOperation
		}

		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToEntry(node)
		}

		return nil, registry_errors.ErrEntryNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update entry",
			zap.Error(err),
			zap.Int64("entryID", entry.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	updated := result.(*model.Entry)
	logger.Info("Entry updated successfully",
		zap.Int64("entryID", entry.ID),
		zap.Duration("duration", duration))

	// Audit trail
	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		ActorEmail:    requestingUserEmail(ctx),
		Action:        "UPDATE_ENTRY",
		TargetType:    string(model.TargetEntry),
		TargetID:      updated.RecordID,
		ChangeDetails: createEntryChangeDetails(oldEntry, updated),
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updated, nil
}

// DeleteEntry removes the entry, its samples and any single-use TUBE
// storages those samples occupied, all in one transaction. Folder
// membership and permission edges go with the node. A store failure
// anywhere aborts the whole cascade.
func (dao *EntryDAO) DeleteEntry(ctx context.Context, entryID int64) error {
	start := time.Now()
	logger.Info("Deleting entry", zap.Int64("entryID", entryID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (e:` + registry_graph.LabelEntry + ` {id: $id})
        OPTIONAL MATCH (e)<-[:` + registry_graph.RelSampleOf + `]-(s:` + registry_graph.LabelSample + `)
        OPTIONAL MATCH (s)-[:` + registry_graph.RelStoredIn + `]->(st:` + registry_graph.LabelStorage + ` {type: $tube})
        DETACH DELETE st, s, e
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":   entryID,
			"tube": string(model.StorageTube),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}

		summary, err := result.Consume()
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}

		if summary.Counters().NodesDeleted() == 0 {
			return nil, registry_errors.ErrEntryNotFound
		}

		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete entry",
			zap.Error(err),
			zap.Int64("entryID", entryID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Entry deleted successfully",
		zap.Int64("entryID", entryID),
		zap.Duration("duration", duration))

	// Audit trail
	auditLog := audit.AuditLog{
		Timestamp:  time.Now(),
		ActorEmail: requestingUserEmail(ctx),
		Action:     "DELETE_ENTRY",
		TargetType: string(model.TargetEntry),
		TargetID:   fmt.Sprintf("%d", entryID),
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

func (dao *EntryDAO) GetEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	return dao.getEntryBy(ctx, "id", entryID)
}

func (dao *EntryDAO) GetEntryByRecordID(ctx context.Context, recordID string) (*model.Entry, error) {
	return dao.getEntryBy(ctx, "recordId", recordID)
}

func (dao *EntryDAO) getEntryBy(ctx context.Context, property string, value interface{}) (*model.Entry, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
		MATCH (e:` + registry_graph.LabelEntry + ` {` + property + `: $value})
		RETURN e
	`
	result, err := session.Run(query, map[string]interface{}{"value": value})
	if err != nil {
		logger.Error("Failed to execute get entry query",
			zap.Error(err),
			zap.Any("value", value),
			zap.Duration("duration", time.Since(start)))
		return nil, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		entry, err := mapNodeToEntry(node)
		if err != nil {
			logger.Error("Failed to map entry node to struct",
				zap.Error(err),
				zap.Any("value", value))
			return nil, registry_errors.ErrInternalServer
		}
		return entry, nil
	}

	logger.Warn("Entry not found",
		zap.Any("value", value),
		zap.Duration("duration", time.Since(start)))
	return nil, registry_errors.ErrEntryNotFound
}

func (dao *EntryDAO) ListEntries(ctx context.Context, criteria model.EntryListCriteria) ([]*model.Entry, error) {
	start := time.Now()
	logger.Info("Listing entries",
		zap.String("sortBy", string(criteria.SortBy)),
		zap.Bool("ascending", criteria.Ascending),
		zap.Int("limit", criteria.Limit),
		zap.Int("offset", criteria.Offset))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	order := "DESC"
	if criteria.Ascending {
		order = "ASC"
	}

	query := `
    MATCH (e:` + registry_graph.LabelEntry + `)
    RETURN e
    ORDER BY e.` + sortProperty(criteria.SortBy) + ` ` + order + `
    SKIP $offset
    LIMIT $limit
    `

	result, err := session.Run(query, map[string]interface{}{
		"limit":  criteria.Limit,
		"offset": criteria.Offset,
	})
	if err != nil {
		logger.Error("Failed to execute list entries query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
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

	logger.Info("Entries listed successfully",
		zap.Int("count", len(entries)),
		zap.Duration("duration", time.Since(start)))

	return entries, nil
}

func (dao *EntryDAO) CountEntries(ctx context.Context) (int64, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `MATCH (e:` + registry_graph.LabelEntry + `) RETURN count(e) AS total`
	result, err := session.Run(query, nil)
	if err != nil {
		return 0, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		total, _ := result.Record().Get("total")
		return total.(int64), nil
	}
	return 0, nil
}

// sortProperty maps the closed sort-field set onto node properties.
func sortProperty(field model.SortField) string {
	switch field {
	case model.SortName:
		return "name"
	case model.SortStatus:
		return "status"
	default:
		return "creationTime"
	}
}

// entryProps flattens an entry onto node properties. Owned collections are
// stored as JSON on the aggregate so that an update replaces them in place
// and a delete takes them with the node.
func entryProps(entry model.Entry) (map[string]interface{}, error) {
	namesJSON, err := json.Marshal(entry.Names)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal names: %w", err)
	}
	partNumbersJSON, err := json.Marshal(entry.PartNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal part numbers: %w", err)
	}
	linksJSON, err := json.Marshal(entry.Links)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal links: %w", err)
	}
	markersJSON, err := json.Marshal(entry.SelectionMarkers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal selection markers: %w", err)
	}
	fundingJSON, err := json.Marshal(entry.FundingSources)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal funding sources: %w", err)
	}
	parametersJSON, err := json.Marshal(entry.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	// Denormalized display name for sorting
	name := ""
	if len(entry.Names) > 0 {
		name = entry.Names[0].Name
	}

	props := map[string]interface{}{
		"versionId":            entry.VersionID,
		"type":                 string(entry.Type),
		"name":                 name,
		"owner":                entry.Owner,
		"ownerEmail":           entry.OwnerEmail,
		"creator":              entry.Creator,
		"creatorEmail":         entry.CreatorEmail,
		"alias":                entry.Alias,
		"keywords":             entry.Keywords,
		"status":               string(entry.Status),
		"shortDescription":     entry.ShortDescription,
		"longDescription":      entry.LongDescription,
		"longDescriptionType":  string(entry.LongDescriptionType),
		"references":           entry.References,
		"intellectualProperty": entry.IntellectualProperty,
		"bioSafetyLevel":       entry.BioSafetyLevel,
		"modificationTime":     helper_util.FormatTime(entry.ModificationTime),
		"names":                string(namesJSON),
		"partNumbers":          string(partNumbersJSON),
		"links":                string(linksJSON),
		"selectionMarkers":     string(markersJSON),
		"fundingSources":       string(fundingJSON),
		"parameters":           string(parametersJSON),
	}

	return props, nil
}

// Helper function to map a Neo4j Node to an Entry struct
func mapNodeToEntry(node neo4j.Node) (*model.Entry, error) {
	props := node.Props

	entry := &model.Entry{
		ID:       props["id"].(int64),
		RecordID: props["recordId"].(string),
	}

	if v, ok := props["versionId"].(string); ok {
		entry.VersionID = v
	}
	if v, ok := props["type"].(string); ok {
		entry.Type = model.EntryType(v)
	}
	if v, ok := props["owner"].(string); ok {
		entry.Owner = v
	}
	if v, ok := props["ownerEmail"].(string); ok {
		entry.OwnerEmail = v
	}
	if v, ok := props["creator"].(string); ok {
		entry.Creator = v
	}
	if v, ok := props["creatorEmail"].(string); ok {
		entry.CreatorEmail = v
	}
	if v, ok := props["alias"].(string); ok {
		entry.Alias = v
	}
	if v, ok := props["keywords"].(string); ok {
		entry.Keywords = v
	}
	if v, ok := props["status"].(string); ok {
		entry.Status = model.EntryStatus(v)
	}
	if v, ok := props["shortDescription"].(string); ok {
		entry.ShortDescription = v
	}
	if v, ok := props["longDescription"].(string); ok {
		entry.LongDescription = v
	}
	if v, ok := props["longDescriptionType"].(string); ok {
		entry.LongDescriptionType = model.MarkupType(v)
	}
	if v, ok := props["references"].(string); ok {
		entry.References = v
	}
	if v, ok := props["intellectualProperty"].(string); ok {
		entry.IntellectualProperty = v
	}
	if v, ok := props["bioSafetyLevel"].(int64); ok {
		entry.BioSafetyLevel = int(v)
	}

	if v, ok := props["names"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.Names); err != nil {
			return nil, fmt.Errorf("failed to unmarshal names: %w", err)
		}
	}
	if v, ok := props["partNumbers"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.PartNumbers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal part numbers: %w", err)
		}
	}
	if v, ok := props["links"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.Links); err != nil {
			return nil, fmt.Errorf("failed to unmarshal links: %w", err)
		}
	}
	if v, ok := props["selectionMarkers"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.SelectionMarkers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selection markers: %w", err)
		}
	}
	if v, ok := props["fundingSources"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.FundingSources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal funding sources: %w", err)
		}
	}
	if v, ok := props["parameters"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &entry.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
		}
	}

	if v, ok := props["creationTime"].(string); ok {
		entry.CreationTime, _ = helper_util.ParseTime(v)
	}
	if v, ok := props["modificationTime"].(string); ok {
		entry.ModificationTime, _ = helper_util.ParseTime(v)
	}

	return entry, nil
}

// Helper function to create change details for audit log
func createEntryChangeDetails(oldEntry, newEntry *model.Entry) json.RawMessage {
	changes := make(map[string]interface{})
	if oldEntry == nil {
		changes["action"] = "created"
	} else if newEntry == nil {
		changes["action"] = "deleted"
	} else {
		changes["action"] = "updated"
		if oldEntry.Status != newEntry.Status {
			changes["status"] = map[string]string{"old": string(oldEntry.Status), "new": string(newEntry.Status)}
		}
		if oldEntry.ShortDescription != newEntry.ShortDescription {
			changes["short_description"] = map[string]string{"old": oldEntry.ShortDescription, "new": newEntry.ShortDescription}
		}
	}
	changeDetails, _ := json.Marshal(changes)
	return changeDetails
}

// requestingUserEmail pulls the acting identity placed in the context by
// the identity middleware; empty for anonymous or background callers.
func requestingUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value("requestingUserEmail").(string); ok {
		return email
	}
	return ""
}
