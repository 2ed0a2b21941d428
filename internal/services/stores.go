package services

import (
	"context"
	"database/sql"

	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/ledger"
	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transactor is the scoped unit of work. Every multi-statement operation in
// this package runs inside exactly one transaction scope, committed once at
// the top level. Satisfied by *gorm.DB.
type transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type accountStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.UserAccount, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.UserAccount, error)
}

type collectibleStore interface {
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Collectible, error)
}

type packStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Pack, error)
	SetActiveBid(ctx context.Context, tx *gorm.DB, packID, bidID uuid.UUID) error
	CountByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, pack *models.Pack) error
}

type bidStore interface {
	Create(ctx context.Context, tx *gorm.DB, bid *models.Bid) error
	ListByPack(ctx context.Context, packID uuid.UUID) ([]models.Bid, error)
}

type eventStore interface {
	Create(ctx context.Context, tx *gorm.DB, action models.EventAction, entityType models.EventEntityType, entityID uuid.UUID) error
}

type notificationStore interface {
	Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error
	ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.Notification, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.NotificationStatus, dispatchErr string) error
}

type auctionStore interface {
	Create(ctx context.Context, tx *gorm.DB, auction *models.Auction) error
	GetDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetOpenByCollectible(ctx context.Context, collectibleID uuid.UUID) (*models.Auction, error)
	GetClosedByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) (*models.Auction, error)
	ListNewByLedgerTransaction(ctx context.Context, tx *gorm.DB, ledgerTransactionIDs []uuid.UUID) ([]models.Auction, error)
	Activate(ctx context.Context, tx *gorm.DB, id uuid.UUID, appID uint64) error
}

type ledgerTransactionStore interface {
	Create(ctx context.Context, tx *gorm.DB, ltx *models.LedgerTransaction) error
	ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]models.LedgerTransaction, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.LedgerTransactionStatus, confirmedRound uint64, ledgerErr string) error
}

type paymentCardStore interface {
	ListNonTerminal(ctx context.Context, tx *gorm.DB, limit int) ([]models.PaymentCard, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.PaymentCardStatus) error
}

// External collaborators

type ledgerClient interface {
	CompileProgram(ctx context.Context, source string) ([]byte, error)
	GetAccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error)
	AppMinBalance(schema ledger.AppSchema) uint64
	SubmitAppCreate(ctx context.Context, params ledger.AppCreateParams) (*ledger.SubmitResult, error)
	PendingTransaction(ctx context.Context, txID string) (*ledger.PendingInfo, error)
}

type contentClient interface {
	GetCollectibleTemplate(ctx context.Context, id uuid.UUID) (*cms.CollectibleTemplate, error)
	GetPackTemplate(ctx context.Context, id uuid.UUID) (*cms.PackTemplate, error)
	ListPublishedPackTemplates(ctx context.Context) ([]cms.PackTemplate, error)
}

type rateSource interface {
	GetRate(ctx context.Context, source, target string) (float64, error)
}

type cardStatusClient interface {
	GetCardStatus(ctx context.Context, externalID string) (string, error)
}

type messageSender interface {
	SendMessage(ctx context.Context, body interface{}) error
}

type currencyConverter interface {
	Convert(ctx context.Context, amount int64, source string) (int64, error)
}

type notifier interface {
	Enqueue(ctx context.Context, tx *gorm.DB, typ models.NotificationType, recipientID uuid.UUID, variables map[string]string) error
}

type packIndexer interface {
	IndexPack(ctx context.Context, pack *models.Pack, slug, title string) error
	SearchPacks(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error)
}
