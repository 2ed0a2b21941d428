package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LedgerTransactionRepository tracks submitted on-chain transactions
type LedgerTransactionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewLedgerTransactionRepository creates a new repository
func NewLedgerTransactionRepository(db *gorm.DB, readOnlyDB *gorm.DB) *LedgerTransactionRepository {
	return &LedgerTransactionRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new pending ledger transaction within the transaction scope
func (r *LedgerTransactionRepository) Create(ctx context.Context, tx *gorm.DB, ltx *models.LedgerTransaction) error {
	if err := tx.WithContext(ctx).Create(ltx).Error; err != nil {
		return errors.Wrap(err, "failed to create ledger transaction")
	}
	return nil
}

// ListPending loads transactions still awaiting on-chain confirmation
func (r *LedgerTransactionRepository) ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.LedgerTransaction, error) {
	var transactions []models.LedgerTransaction
	err := tx.WithContext(ctx).
		Where("status = ?", models.LedgerTransactionPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending ledger transactions")
	}
	return transactions, nil
}

// SetStatus records the confirmation outcome of a ledger transaction
func (r *LedgerTransactionRepository) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.LedgerTransactionStatus, confirmedRound uint64, ledgerErr string) error {
	updates := map[string]interface{}{
		"status":          status,
		"confirmed_round": confirmedRound,
	}
	if ledgerErr != "" {
		updates["error"] = ledgerErr
	}

	result := tx.WithContext(ctx).
		Model(&models.LedgerTransaction{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update ledger transaction status")
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}
