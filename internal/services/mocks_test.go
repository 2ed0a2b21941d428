package services

import (
	"context"
	"database/sql"

	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/ledger"
	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// fakeTransactor runs the callback with a nil handle. The mocked stores
// ignore the handle, so services exercise their full transaction body.
type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	f.calls++
	return fc(nil)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByExternalID(ctx context.Context, externalID string) (*models.UserAccount, error) {
	args := m.Called(ctx, externalID)
	if v := args.Get(0); v != nil {
		return v.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountStore) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.UserAccount, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCollectibleStore struct{ mock.Mock }

func (m *mockCollectibleStore) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Collectible, error) {
	args := m.Called(ctx, id, ownerID)
	if v := args.Get(0); v != nil {
		return v.(*models.Collectible), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPackStore struct{ mock.Mock }

func (m *mockPackStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Pack), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPackStore) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Pack, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Pack), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPackStore) SetActiveBid(ctx context.Context, tx *gorm.DB, packID, bidID uuid.UUID) error {
	return m.Called(ctx, tx, packID, bidID).Error(0)
}

func (m *mockPackStore) CountByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, templateID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPackStore) Create(ctx context.Context, tx *gorm.DB, pack *models.Pack) error {
	return m.Called(ctx, tx, pack).Error(0)
}

type mockBidStore struct{ mock.Mock }

func (m *mockBidStore) Create(ctx context.Context, tx *gorm.DB, bid *models.Bid) error {
	return m.Called(ctx, tx, bid).Error(0)
}

func (m *mockBidStore) ListByPack(ctx context.Context, packID uuid.UUID) ([]models.Bid, error) {
	args := m.Called(ctx, packID)
	if v := args.Get(0); v != nil {
		return v.([]models.Bid), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) Create(ctx context.Context, tx *gorm.DB, action models.EventAction, entityType models.EventEntityType, entityID uuid.UUID) error {
	return m.Called(ctx, tx, action, entityType, entityID).Error(0)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	return m.Called(ctx, tx, n).Error(0)
}

func (m *mockNotificationStore) ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, tx, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationStore) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.NotificationStatus, dispatchErr string) error {
	return m.Called(ctx, tx, id, status, dispatchErr).Error(0)
}

type mockAuctionStore struct{ mock.Mock }

func (m *mockAuctionStore) Create(ctx context.Context, tx *gorm.DB, auction *models.Auction) error {
	return m.Called(ctx, tx, auction).Error(0)
}

func (m *mockAuctionStore) GetDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Auction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuctionStore) GetOpenByCollectible(ctx context.Context, collectibleID uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, collectibleID)
	if v := args.Get(0); v != nil {
		return v.(*models.Auction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuctionStore) GetClosedByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, tx, packID)
	if v := args.Get(0); v != nil {
		return v.(*models.Auction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuctionStore) ListNewByLedgerTransaction(ctx context.Context, tx *gorm.DB, ledgerTransactionIDs []uuid.UUID) ([]models.Auction, error) {
	args := m.Called(ctx, tx, ledgerTransactionIDs)
	if v := args.Get(0); v != nil {
		return v.([]models.Auction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuctionStore) Activate(ctx context.Context, tx *gorm.DB, id uuid.UUID, appID uint64) error {
	return m.Called(ctx, tx, id, appID).Error(0)
}

type mockLedgerTransactionStore struct{ mock.Mock }

func (m *mockLedgerTransactionStore) Create(ctx context.Context, tx *gorm.DB, ltx *models.LedgerTransaction) error {
	return m.Called(ctx, tx, ltx).Error(0)
}

func (m *mockLedgerTransactionStore) ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.LedgerTransaction, error) {
	args := m.Called(ctx, tx, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.LedgerTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerTransactionStore) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.LedgerTransactionStatus, confirmedRound uint64, ledgerErr string) error {
	return m.Called(ctx, tx, id, status, confirmedRound, ledgerErr).Error(0)
}

type mockPaymentCardStore struct{ mock.Mock }

func (m *mockPaymentCardStore) ListNonTerminal(ctx context.Context, tx *gorm.DB, limit int) ([]models.PaymentCard, error) {
	args := m.Called(ctx, tx, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.PaymentCard), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentCardStore) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.PaymentCardStatus) error {
	return m.Called(ctx, tx, id, status).Error(0)
}

type mockLedgerClient struct{ mock.Mock }

func (m *mockLedgerClient) CompileProgram(ctx context.Context, source string) ([]byte, error) {
	args := m.Called(ctx, source)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerClient) GetAccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error) {
	args := m.Called(ctx, address)
	if v := args.Get(0); v != nil {
		return v.(*ledger.AccountInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerClient) AppMinBalance(schema ledger.AppSchema) uint64 {
	return m.Called(schema).Get(0).(uint64)
}

func (m *mockLedgerClient) SubmitAppCreate(ctx context.Context, params ledger.AppCreateParams) (*ledger.SubmitResult, error) {
	args := m.Called(ctx, params)
	if v := args.Get(0); v != nil {
		return v.(*ledger.SubmitResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerClient) PendingTransaction(ctx context.Context, txID string) (*ledger.PendingInfo, error) {
	args := m.Called(ctx, txID)
	if v := args.Get(0); v != nil {
		return v.(*ledger.PendingInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockContentClient struct{ mock.Mock }

func (m *mockContentClient) GetCollectibleTemplate(ctx context.Context, id uuid.UUID) (*cms.CollectibleTemplate, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*cms.CollectibleTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContentClient) GetPackTemplate(ctx context.Context, id uuid.UUID) (*cms.PackTemplate, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*cms.PackTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContentClient) ListPublishedPackTemplates(ctx context.Context) ([]cms.PackTemplate, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]cms.PackTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRateSource struct{ mock.Mock }

func (m *mockRateSource) GetRate(ctx context.Context, source, target string) (float64, error) {
	args := m.Called(ctx, source, target)
	return args.Get(0).(float64), args.Error(1)
}

type mockCardStatusClient struct{ mock.Mock }

func (m *mockCardStatusClient) GetCardStatus(ctx context.Context, externalID string) (string, error) {
	args := m.Called(ctx, externalID)
	return args.String(0), args.Error(1)
}

type mockMessageSender struct{ mock.Mock }

func (m *mockMessageSender) SendMessage(ctx context.Context, body interface{}) error {
	return m.Called(ctx, body).Error(0)
}

type mockCurrencyConverter struct{ mock.Mock }

func (m *mockCurrencyConverter) Convert(ctx context.Context, amount int64, source string) (int64, error) {
	args := m.Called(ctx, amount, source)
	return args.Get(0).(int64), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Enqueue(ctx context.Context, tx *gorm.DB, typ models.NotificationType, recipientID uuid.UUID, variables map[string]string) error {
	return m.Called(ctx, tx, typ, recipientID, variables).Error(0)
}

type mockPackIndexer struct{ mock.Mock }

func (m *mockPackIndexer) IndexPack(ctx context.Context, pack *models.Pack, slug, title string) error {
	return m.Called(ctx, pack, slug, title).Error(0)
}

func (m *mockPackIndexer) SearchPacks(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.([]map[string]interface{}), args.Error(1)
	}
	return nil, args.Error(1)
}
