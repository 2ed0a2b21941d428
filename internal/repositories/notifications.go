package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NotificationRepository provides access to the notification queue
type NotificationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewNotificationRepository creates a new repository
func NewNotificationRepository(db *gorm.DB, readOnlyDB *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new pending notification within the given transaction scope
func (r *NotificationRepository) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListPending loads pending notifications with their recipients. Runs within
// the dispatch pass transaction so status updates stay atomic with the pass.
func (r *NotificationRepository) ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := tx.WithContext(ctx).
		Where("status = ?", models.NotificationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Preload("Recipient").
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending notifications")
	}
	return notifications, nil
}

// SetStatus marks a notification sent or failed within the transaction scope
func (r *NotificationRepository) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.NotificationStatus, dispatchErr string) error {
	updates := map[string]interface{}{"status": status}
	if dispatchErr != "" {
		updates["error"] = dispatchErr
	}

	result := tx.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update notification status")
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}
