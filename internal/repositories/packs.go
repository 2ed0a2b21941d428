package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PackRepository provides access to pack data
type PackRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPackRepository creates a new repository
func NewPackRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PackRepository {
	return &PackRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a pack by ID
func (r *PackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	// Use read-only DB for reads
	err := r.readOnlyDB.WithContext(ctx).First(&pack, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get pack by ID")
	}
	return &pack, nil
}

// GetForUpdate loads a pack and its active bid under a row lock held for the
// duration of the transaction. The lock is the serialization point for
// concurrent bid placement on the same pack.
func (r *PackRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pack, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to lock pack for update")
	}

	if pack.ActiveBidID != nil {
		var bid models.Bid
		if err := tx.WithContext(ctx).First(&bid, "id = ?", *pack.ActiveBidID).Error; err != nil {
			return nil, errors.Wrap(err, "failed to load active bid")
		}
		pack.ActiveBid = &bid
	}

	return &pack, nil
}

// SetActiveBid moves the pack's winner pointer to the given bid
func (r *PackRepository) SetActiveBid(ctx context.Context, tx *gorm.DB, packID, bidID uuid.UUID) error {
	result := tx.WithContext(ctx).
		Model(&models.Pack{}).
		Where("id = ?", packID).
		Update("active_bid_id", bidID)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update active bid")
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}

// CountByTemplate counts existing packs for a template within the transaction
func (r *PackRepository) CountByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Pack{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count packs by template")
	}
	return count, nil
}

// Create inserts a new pack within the given transaction scope
func (r *PackRepository) Create(ctx context.Context, tx *gorm.DB, pack *models.Pack) error {
	if err := tx.WithContext(ctx).Create(pack).Error; err != nil {
		return errors.Wrap(err, "failed to create pack")
	}
	return nil
}
