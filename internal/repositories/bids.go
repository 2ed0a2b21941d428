package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// BidRepository provides access to bid data. Bids are append-only; there are
// no update or delete operations.
type BidRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewBidRepository creates a new repository
func NewBidRepository(db *gorm.DB, readOnlyDB *gorm.DB) *BidRepository {
	return &BidRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new bid within the given transaction scope
func (r *BidRepository) Create(ctx context.Context, tx *gorm.DB, bid *models.Bid) error {
	if err := tx.WithContext(ctx).Create(bid).Error; err != nil {
		return errors.Wrap(err, "failed to create bid")
	}
	return nil
}

// ListByPack returns the bid history for a pack, newest first
func (r *BidRepository) ListByPack(ctx context.Context, packID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.readOnlyDB.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("created_at DESC").
		Preload("Bidder").
		Find(&bids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bids by pack")
	}
	return bids, nil
}
