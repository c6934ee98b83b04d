// api/dao/account_dao.go
package dao

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
	registry_graph "github.com/openparts/registry/api/model/graph"
	helper_util "github.com/openparts/registry/api/util/helper"
)

type AccountDAO struct {
	Driver neo4j.Driver
}

var _ IAccountDAO = &AccountDAO{}

func NewAccountDAO(driver neo4j.Driver) *AccountDAO {
	dao := &AccountDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraints for Account and Group", zap.Error(err))
	}
	return dao
}

func (dao *AccountDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		queries := []string{
			`CREATE CONSTRAINT unique_account_email IF NOT EXISTS
			 FOR (a:` + registry_graph.LabelAccount + `) REQUIRE a.email IS UNIQUE`,
			`CREATE CONSTRAINT unique_group_uuid IF NOT EXISTS
			 FOR (g:` + registry_graph.LabelGroup + `) REQUIRE g.uuid IS UNIQUE`,
		}
		for _, query := range queries {
			if _, err := transaction.Run(query, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraints", zap.Error(err))
		return err
	}

	return nil
}

func (dao *AccountDAO) GetAccount(ctx context.Context, email string) (*model.Account, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (a:` + registry_graph.LabelAccount + ` {email: $email})
	RETURN a
	`
	result, err := session.Run(query, map[string]interface{}{"email": email})
	if err != nil {
		logger.Error("Failed to execute get account query", zap.Error(err), zap.String("email", email))
		return nil, registry_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToAccount(node), nil
	}
	return nil, registry_errors.ErrAccountNotFound
}

func (dao *AccountDAO) SaveAccount(ctx context.Context, account model.Account) (*model.Account, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (a:` + registry_graph.LabelAccount + ` {email: $email})
        SET a += $props
        RETURN a
        `
		props := map[string]interface{}{
			"firstName": account.FirstName,
			"lastName":  account.LastName,
			"isAdmin":   account.IsAdmin,
		}
		if !account.CreatedAt.IsZero() {
			props["createdAt"] = helper_util.FormatTime(account.CreatedAt)
		}

		result, err := transaction.Run(query, map[string]interface{}{
			"email": account.Email,
			"props": props,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToAccount(node), nil
		}
		return nil, registry_errors.ErrDatabaseOperation
	})

	if err != nil {
		logger.Error("Failed to save account", zap.Error(err), zap.String("email", account.Email))
		return nil, err
	}

	logger.Info("Account saved successfully", zap.String("email", account.Email))
	return result.(*model.Account), nil
}

func (dao *AccountDAO) GetGroupsForAccount(ctx context.Context, email string) ([]model.Group, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
	MATCH (a:` + registry_graph.LabelAccount + ` {email: $email})-[:` + registry_graph.RelMemberOf + `]->(g:` + registry_graph.LabelGroup + `)
	RETURN g
	`
	result, err := session.Run(query, map[string]interface{}{"email": email})
	if err != nil {
		logger.Error("Failed to get groups for account", zap.Error(err), zap.String("email", email))
		return nil, registry_errors.ErrDatabaseOperation
	}

	var groups []model.Group
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		groups = append(groups, *mapNodeToGroup(node))
	}
	return groups, nil
}

func (dao *AccountDAO) IsAdministrator(ctx context.Context, email string) (bool, error) {
	account, err := dao.GetAccount(ctx, email)
	if err == registry_errors.ErrAccountNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.IsAdmin, nil
}

func (dao *AccountDAO) SaveGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (g:` + registry_graph.LabelGroup + ` {uuid: $uuid})
        SET g.label = $label, g.description = $description
        RETURN g
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"uuid":        group.UUID,
			"label":       group.Label,
			"description": group.Description,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			return mapNodeToGroup(node), nil
		}
		return nil, registry_errors.ErrDatabaseOperation
	})

	if err != nil {
		logger.Error("Failed to save group", zap.Error(err), zap.String("groupUUID", group.UUID))
		return nil, err
	}

	logger.Info("Group saved successfully", zap.String("groupUUID", group.UUID))
	return result.(*model.Group), nil
}

func (dao *AccountDAO) AddGroupMember(ctx context.Context, groupUUID, email string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (g:` + registry_graph.LabelGroup + ` {uuid: $uuid})
        MERGE (a:` + registry_graph.LabelAccount + ` {email: $email})
        MERGE (a)-[:` + registry_graph.RelMemberOf + `]->(g)
        RETURN g
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"uuid":  groupUUID,
			"email": email,
		})
		if err != nil {
			return nil, registry_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, registry_errors.ErrGroupNotFound
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to add group member",
			zap.Error(err),
			zap.String("groupUUID", groupUUID),
			zap.String("email", email))
		return err
	}

	logger.Info("Group member added",
		zap.String("groupUUID", groupUUID),
		zap.String("email", email))
	return nil
}

// Helper function to map a Neo4j Node to an Account struct
func mapNodeToAccount(node neo4j.Node) *model.Account {
	props := node.Props

	account := &model.Account{
		Email: props["email"].(string),
	}
	if v, ok := props["firstName"].(string); ok {
		account.FirstName = v
	}
	if v, ok := props["lastName"].(string); ok {
		account.LastName = v
	}
	if v, ok := props["isAdmin"].(bool); ok {
		account.IsAdmin = v
	}
	if v, ok := props["createdAt"].(string); ok {
		account.CreatedAt, _ = helper_util.ParseTime(v)
	}
	return account
}

// Helper function to map a Neo4j Node to a Group struct
func mapNodeToGroup(node neo4j.Node) *model.Group {
	props := node.Props

	group := &model.Group{
		UUID: props["uuid"].(string),
	}
	if v, ok := props["label"].(string); ok {
		group.Label = v
	}
	if v, ok := props["description"].(string); ok {
		group.Description = v
	}
	return group
}
