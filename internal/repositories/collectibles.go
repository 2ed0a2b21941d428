package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CollectibleRepository provides access to collectible data
type CollectibleRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewCollectibleRepository creates a new repository
func NewCollectibleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *CollectibleRepository {
	return &CollectibleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetOwned gets a collectible by ID, constrained to the given owner
func (r *CollectibleRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Collectible, error) {
	var collectible models.Collectible
	err := r.readOnlyDB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&collectible).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get collectible")
	}
	return &collectible, nil
}
