package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EventRepository provides access to the append-only audit log
type EventRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewEventRepository creates a new repository
func NewEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventRepository {
	return &EventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new audit event within the given transaction scope
func (r *EventRepository) Create(ctx context.Context, tx *gorm.DB, action models.EventAction, entityType models.EventEntityType, entityID uuid.UUID) error {
	event := &models.Event{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := tx.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to create audit event")
	}
	return nil
}
