// api/dao/permission_dao.go
package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/audit"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	registry_graph "github.com/openparts/registry/api/model/graph"
)

type PermissionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

var _ IPermissionDAO = &PermissionDAO{}

func NewPermissionDAO(driver neo4j.Driver, auditService audit.Service) *PermissionDAO {
	return &PermissionDAO{Driver: driver, AuditService: auditService}
}

// targetMatch resolves a target type to its node label and identifying
// property. Entries are addressed by record id, folders by id.
func targetMatch(targetType model.TargetType) (label, idProp string) {
	if targetType == model.TargetFolder {
		return registry_graph.LabelFolder, "id"
	}
	return registry_graph.LabelEntry, "recordId"
}

// subjectMatch resolves a subject type to its node label and identifying
// property. Accounts are addressed by email, groups by uuid.
func subjectMatch(subjectType model.SubjectType) (label, idProp string) {
	if subjectType == model.SubjectGroup {
		return registry_graph.LabelGroup, "uuid"
	}
	return registry_graph.LabelAccount, "email"
}

// AddGrant stores one grant tuple. The target must exist; the subject node
// is created on demand. MERGE on the relationship makes an identical tuple
// a no-op, so retrying a grant is always safe.
func (dao *PermissionDAO) AddGrant(ctx context.Context, permission model.AccessPermission) error {
	start := time.Now()
	logger.Info("Adding permission grant",
		zap.String("subjectType", string(permission.SubjectType)),
		zap.String("subjectID", permission.SubjectID),
		zap.String("targetType", string(permission.TargetType)),
		zap.String("targetID", permission.TargetID),
		zap.String("level", string(permission.Level)))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	targetLabel, targetProp := targetMatch(permission.TargetType)
	subjectLabel, subjectProp := subjectMatch(permission.SubjectType)

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (t:` + targetLabel + ` {` + targetProp + `: $targetId})
        MERGE (s:` + subjectLabel + ` {` + subjectProp + `: $subjectId})
        MERGE (s)-[r:` + registry_graph.RelHasPermission + ` {level: $level}]->(t)
        RETURN r
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"targetId":  permission.TargetID,
			"subjectId": permission.SubjectID,
			"level":     string(permission.Level),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, registry_errors.ErrTargetNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to add permission grant",
			zap.Error(err),
			zap.String("targetID", permission.TargetID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Permission grant added",
		zap.String("targetID", permission.TargetID),
		zap.Duration("duration", duration))

	details, _ := json.Marshal(permission)
	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		ActorEmail:    requestingUserEmail(ctx),
		Action:        "ADD_GRANT",
		TargetType:    string(permission.TargetType),
		TargetID:      permission.TargetID,
		ChangeDetails: details,
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

// RemoveGrant deletes one grant tuple. Removing a tuple that is not stored
// is a no-op.
func (dao *PermissionDAO) RemoveGrant(ctx context.Context, permission model.AccessPermission) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	targetLabel, targetProp := targetMatch(permission.TargetType)
	subjectLabel, subjectProp := subjectMatch(permission.SubjectType)

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:` + subjectLabel + ` {` + subjectProp + `: $subjectId})-[r:` + registry_graph.RelHasPermission + ` {level: $level}]->(t:` + targetLabel + ` {` + targetProp + `: $targetId})
        DELETE r
        `
		_, err := transaction.Run(query, map[string]interface{}{
			"targetId":  permission.TargetID,
			"subjectId": permission.SubjectID,
			"level":     string(permission.Level),
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to remove permission grant",
			zap.Error(err),
			zap.String("targetID", permission.TargetID))
		return err
	}

	logger.Info("Permission grant removed",
		zap.String("subjectID", permission.SubjectID),
		zap.String("targetID", permission.TargetID),
		zap.String("level", string(permission.Level)))

	details, _ := json.Marshal(permission)
	auditLog := audit.AuditLog{
		Timestamp:     time.Now(),
		ActorEmail:    requestingUserEmail(ctx),
		Action:        "REMOVE_GRANT",
		TargetType:    string(permission.TargetType),
		TargetID:      permission.TargetID,
		ChangeDetails: details,
	}
	if err := dao.AuditService.LogAction(ctx, auditLog); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

func (dao *PermissionDAO) GetGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) ([]model.AccessPermission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	targetLabel, targetProp := targetMatch(targetType)

	query := `
	MATCH (s)-[r:` + registry_graph.RelHasPermission + `]->(t:` + targetLabel + ` {` + targetProp + `: $targetId})
	RETURN labels(s) AS subjectLabels, s, r.level AS level
	`
	result, err := session.Run(query, map[string]interface{}{"targetId": targetID})
	if err != nil {
		logger.Error("Failed to get grants for target",
			zap.Error(err),
			zap.String("targetID", targetID))
		return nil, registry_errors.ErrDatabaseOperation
	}

	var grants []model.AccessPermission
	for result.Next() {
		record := result.Record()
		rawLabels, _ := record.Get("subjectLabels")
		node := record.Values[1].(neo4j.Node)
		level, _ := record.Get("level")

		grant := model.AccessPermission{
			TargetType: targetType,
			TargetID:   targetID,
			Level:      model.PermissionLevel(level.(string)),
		}
		for _, raw := range rawLabels.([]interface{}) {
			switch raw.(string) {
			case registry_graph.LabelAccount:
				grant.SubjectType = model.SubjectAccount
				grant.SubjectID = node.Props["email"].(string)
			case registry_graph.LabelGroup:
				grant.SubjectType = model.SubjectGroup
				grant.SubjectID = node.Props["uuid"].(string)
			}
		}
		grants = append(grants, grant)
	}
	return grants, nil
}

// HasGrant reports whether any of the subject ids holds exactly the given
// level on the target. Subject ids mix account emails and group uuids; the
// label check keeps them from colliding.
func (dao *PermissionDAO) HasGrant(ctx context.Context, subjectIDs []string, targetType model.TargetType, targetID string, level model.PermissionLevel) (bool, error) {
	if len(subjectIDs) == 0 {
		return false, nil
	}

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	targetLabel, targetProp := targetMatch(targetType)

	query := `
	MATCH (s)-[r:` + registry_graph.RelHasPermission + ` {level: $level}]->(t:` + targetLabel + ` {` + targetProp + `: $targetId})
	WHERE (s:` + registry_graph.LabelAccount + ` AND s.email IN $subjects)
	   OR (s:` + registry_graph.LabelGroup + ` AND s.uuid IN $subjects)
	RETURN count(r) > 0 AS granted
	`
	result, err := session.Run(query, map[string]interface{}{
		"targetId": targetID,
		"subjects": subjectIDs,
		"level":    string(level),
	})
	if err != nil {
		logger.Error("Failed to check grant",
			zap.Error(err),
			zap.String("targetID", targetID),
			zap.String("level", string(level)))
		return false, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		granted, _ := result.Record().Get("granted")
		return granted.(bool), nil
	}
	return false, nil
}

// RemoveGrantsForTarget drops every grant on the target. Used when the
// target itself is deleted.
func (dao *PermissionDAO) RemoveGrantsForTarget(ctx context.Context, targetType model.TargetType, targetID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	targetLabel, targetProp := targetMatch(targetType)

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH ()-[r:` + registry_graph.RelHasPermission + `]->(t:` + targetLabel + ` {` + targetProp + `: $targetId})
        DELETE r
        `
		_, err := transaction.Run(query, map[string]interface{}{"targetId": targetID})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to remove grants for target",
			zap.Error(err),
			zap.String("targetID", targetID))
		return err
	}

	logger.Info("Grants removed for target",
		zap.String("targetType", string(targetType)),
		zap.String("targetID", targetID))
	return nil
}
