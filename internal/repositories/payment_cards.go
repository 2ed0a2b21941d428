package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PaymentCardRepository provides access to payment card data
type PaymentCardRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPaymentCardRepository creates a new repository
func NewPaymentCardRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PaymentCardRepository {
	return &PaymentCardRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListNonTerminal loads cards that still need reconciling against the
// payment processor (anything not complete or failed).
func (r *PaymentCardRepository) ListNonTerminal(ctx context.Context, tx *gorm.DB, limit int) ([]models.PaymentCard, error) {
	var cards []models.PaymentCard
	err := tx.WithContext(ctx).
		Where("status NOT IN ?", []models.PaymentCardStatus{models.PaymentCardComplete, models.PaymentCardFailed}).
		Order("created_at ASC").
		Limit(limit).
		Find(&cards).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list payment cards")
	}
	return cards, nil
}

// SetStatus records a card status change within the transaction scope
func (r *PaymentCardRepository) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.PaymentCardStatus) error {
	result := tx.WithContext(ctx).
		Model(&models.PaymentCard{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update payment card status")
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}
