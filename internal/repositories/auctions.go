package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AuctionRepository provides access to auction data. Auction rows are never
// deleted; they are part of the audit trail.
type AuctionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAuctionRepository creates a new repository
func NewAuctionRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AuctionRepository {
	return &AuctionRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new auction within the given transaction scope
func (r *AuctionRepository) Create(ctx context.Context, tx *gorm.DB, auction *models.Auction) error {
	if err := tx.WithContext(ctx).Create(auction).Error; err != nil {
		return errors.Wrap(err, "failed to create auction")
	}
	return nil
}

// GetDetails loads an auction with its collectible, seller and full bid
// history including bidder accounts.
func (r *AuctionRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Collectible").
		Preload("Seller").
		Preload("Pack").
		Preload("Pack.Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("bids.created_at DESC")
		}).
		Preload("Pack.Bids.Bidder").
		Preload("LedgerTransaction").
		First(&auction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get auction details")
	}
	return &auction, nil
}

// GetOpenByCollectible returns a non-closed auction for the collectible, if
// one exists. A collectible may have at most one auction that is not closed.
func (r *AuctionRepository) GetOpenByCollectible(ctx context.Context, collectibleID uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.readOnlyDB.WithContext(ctx).
		Where("collectible_id = ? AND status <> ?", collectibleID, models.AuctionStatusClosed).
		First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get open auction by collectible")
	}
	return &auction, nil
}

// GetOpenByPack returns a non-closed auction tied to the pack, if one exists
func (r *AuctionRepository) GetOpenByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := tx.WithContext(ctx).
		Where("pack_id = ? AND status <> ?", packID, models.AuctionStatusClosed).
		First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get open auction by pack")
	}
	return &auction, nil
}

// GetClosedByPack reports whether the pack belongs to a closed auction
func (r *AuctionRepository) GetClosedByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := tx.WithContext(ctx).
		Where("pack_id = ? AND status = ?", packID, models.AuctionStatusClosed).
		First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get closed auction by pack")
	}
	return &auction, nil
}

// ListNewByLedgerTransaction loads auctions in the New state created by the
// given ledger transactions.
func (r *AuctionRepository) ListNewByLedgerTransaction(ctx context.Context, tx *gorm.DB, ledgerTransactionIDs []uuid.UUID) ([]models.Auction, error) {
	if len(ledgerTransactionIDs) == 0 {
		return nil, nil
	}
	var auctions []models.Auction
	err := tx.WithContext(ctx).
		Where("status = ? AND ledger_transaction_id IN ?", models.AuctionStatusNew, ledgerTransactionIDs).
		Find(&auctions).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list new auctions by ledger transaction")
	}
	return auctions, nil
}

// Activate moves an auction from New to Active and records the confirmed
// application ID. The status guard keeps the transition one-directional.
func (r *AuctionRepository) Activate(ctx context.Context, tx *gorm.DB, id uuid.UUID, appID uint64) error {
	result := tx.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, models.AuctionStatusNew).
		Updates(map[string]interface{}{
			"status": models.AuctionStatusActive,
			"app_id": appID,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to activate auction")
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}
