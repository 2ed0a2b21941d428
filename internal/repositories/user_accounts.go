package repositories

import (
	"context"

	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserAccountRepository provides access to user account data
type UserAccountRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewUserAccountRepository creates a new user account repository
func NewUserAccountRepository(db *gorm.DB, readOnlyDB *gorm.DB) *UserAccountRepository {
	return &UserAccountRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByExternalID gets a user account by its external identifier
func (r *UserAccountRepository) GetByExternalID(ctx context.Context, externalID string) (*models.UserAccount, error) {
	var account models.UserAccount
	// Use read-only DB for reads
	err := r.readOnlyDB.WithContext(ctx).Where("external_id = ?", externalID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get user account by external ID")
	}
	return &account, nil
}

// GetByID gets a user account by ID within the given transaction scope
func (r *UserAccountRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.UserAccount, error) {
	var account models.UserAccount
	err := tx.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get user account by ID")
	}
	return &account, nil
}
