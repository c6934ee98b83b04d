// api/util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyEntryChange(ctx context.Context, changeType string, entry model.Entry) error {
	switch changeType {
	case "created":
		logger.Info("NOTIFICATION: New entry created",
			zap.Int64("entryID", entry.ID),
			zap.String("recordID", entry.RecordID))
	case "updated":
		logger.Info("NOTIFICATION: Entry updated",
			zap.Int64("entryID", entry.ID),
			zap.String("recordID", entry.RecordID))
	case "deleted":
		logger.Info("NOTIFICATION: Entry deleted",
			zap.Int64("entryID", entry.ID))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	// Here you would implement the actual notification logic
	// This could involve sending messages to a queue, calling an external API, etc.

	return nil
}

func (n *NotificationService) NotifySampleChange(ctx context.Context, changeType string, sample model.Sample) error {
	logger.Info("Notifying sample change",
		zap.String("changeType", changeType),
		zap.Int64("sampleID", sample.ID),
		zap.Int64("entryID", sample.EntryID))
	return nil
}

func (n *NotificationService) NotifyFolderChange(ctx context.Context, changeType string, folder model.Folder) error {
	logger.Info("Notifying folder change",
		zap.String("changeType", changeType),
		zap.String("folderID", folder.ID),
		zap.String("folderName", folder.Name))
	return nil
}

func (n *NotificationService) NotifyPermissionChange(ctx context.Context, changeType string, permission model.AccessPermission) error {
	logger.Info("Notifying permission change",
		zap.String("changeType", changeType),
		zap.String("subjectID", permission.SubjectID),
		zap.String("targetID", permission.TargetID),
		zap.String("level", string(permission.Level)))
	return nil
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// Mock email sending
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))

	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	// Logic to notify all system administrators
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
