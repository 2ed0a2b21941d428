package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AuctionStatus is the lifecycle state of an auction. Transitions are
// one-directional: New -> Active -> Closed.
type AuctionStatus string

const (
	AuctionStatusNew    AuctionStatus = "new"
	AuctionStatusActive AuctionStatus = "active"
	AuctionStatusClosed AuctionStatus = "closed"
)

// NotificationType enumerates the cross-channel message templates
type NotificationType string

const (
	NotificationUserOutbid    NotificationType = "user-outbid"
	NotificationUserHighBid   NotificationType = "user-high-bid"
	NotificationPaymentFailed NotificationType = "payment-failed"
)

// NotificationStatus is the dispatch state of a queued notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// EventAction is the audited mutation type
type EventAction string

const (
	EventActionCreate EventAction = "create"
	EventActionUpdate EventAction = "update"
)

// EventEntityType names the audited entity
type EventEntityType string

const (
	EventEntityBid               EventEntityType = "bid"
	EventEntityPack              EventEntityType = "pack"
	EventEntityAuction           EventEntityType = "auction"
	EventEntityPaymentCard       EventEntityType = "payment_card"
	EventEntityLedgerTransaction EventEntityType = "ledger_transaction"
)

// LedgerTransactionStatus tracks asynchronous on-chain finality
type LedgerTransactionStatus string

const (
	LedgerTransactionPending   LedgerTransactionStatus = "pending"
	LedgerTransactionConfirmed LedgerTransactionStatus = "confirmed"
	LedgerTransactionFailed    LedgerTransactionStatus = "failed"
)

// PaymentCardStatus mirrors the external payment processor card states
type PaymentCardStatus string

const (
	PaymentCardInactive PaymentCardStatus = "inactive"
	PaymentCardPending  PaymentCardStatus = "pending"
	PaymentCardComplete PaymentCardStatus = "complete"
	PaymentCardFailed   PaymentCardStatus = "failed"
)

// UserAccount represents a registered marketplace user
type UserAccount struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	ExternalID    string         `gorm:"not null;uniqueIndex" json:"external_id"`
	Email         string         `gorm:"not null" json:"email"`
	Locale        string         `gorm:"not null;default:en-US" json:"locale"`
	LedgerAddress string         `gorm:"not null" json:"ledger_address"`
	EncryptedKey  []byte         `gorm:"not null" json:"-"`
	Bids          []Bid          `gorm:"foreignKey:UserAccountID" json:"-"`
}

// Collectible represents a minted digital collectible
type Collectible struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	TemplateID uuid.UUID      `gorm:"type:uuid;not null" json:"template_id"`
	OwnerID    *uuid.UUID     `gorm:"type:uuid" json:"owner_id"`
	AssetIndex uint64         `gorm:"not null" json:"asset_index"`
	Owner      *UserAccount   `gorm:"foreignKey:OwnerID" json:"-"`
}

// Pack is a sellable unit of collectibles. ActiveBidID is the derived winner
// pointer: it always references the highest accepted bid once a transaction
// commits, never a stale one.
type Pack struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TemplateID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	OwnerID     *uuid.UUID     `gorm:"type:uuid" json:"owner_id"`
	ActiveBidID *uuid.UUID     `gorm:"type:uuid" json:"active_bid_id"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	ActiveBid   *Bid           `gorm:"foreignKey:ActiveBidID" json:"-"`
	Bids        []Bid          `gorm:"foreignKey:PackID" json:"-"`
}

// Auction ties a collectible sale to an on-chain application deployment.
// Rows are never deleted; they form part of the audit trail.
type Auction struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	CollectibleID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"collectible_id"`
	UserAccountID       uuid.UUID          `gorm:"type:uuid;not null" json:"user_account_id"`
	PackID              uuid.UUID          `gorm:"type:uuid;not null" json:"pack_id"`
	ReservePrice        int64              `gorm:"not null" json:"reserve_price"`
	StartAt             time.Time          `gorm:"not null" json:"start_at"`
	EndAt               time.Time          `gorm:"not null" json:"end_at"`
	Status              AuctionStatus      `gorm:"not null;default:new" json:"status"`
	AppID               uint64             `gorm:"not null;default:0" json:"app_id"`
	LedgerTransactionID uuid.UUID          `gorm:"type:uuid;not null" json:"ledger_transaction_id"`
	Collectible         Collectible        `gorm:"foreignKey:CollectibleID" json:"-"`
	Seller              UserAccount        `gorm:"foreignKey:UserAccountID" json:"-"`
	Pack                Pack               `gorm:"foreignKey:PackID" json:"-"`
	LedgerTransaction   *LedgerTransaction `gorm:"foreignKey:LedgerTransactionID" json:"-"`
}

// Bid is an immutable record of one accepted bid. Amounts are stored in the
// base currency's smallest unit. Rows are append-only.
type Bid struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	PackID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"pack_id"`
	UserAccountID uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_account_id"`
	Amount        int64       `gorm:"not null" json:"amount"`
	Bidder        UserAccount `gorm:"foreignKey:UserAccountID" json:"-"`
}

// Notification is a queued cross-channel message. Created transactionally
// alongside the state change that caused it, dispatched asynchronously.
type Notification struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Type          NotificationType   `gorm:"not null" json:"type"`
	UserAccountID uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_account_id"`
	Variables     []byte             `gorm:"type:jsonb" json:"variables"`
	Status        NotificationStatus `gorm:"not null;default:pending;index" json:"status"`
	Error         *string            `json:"error"`
	Recipient     UserAccount        `gorm:"foreignKey:UserAccountID" json:"-"`
}

// Event is an append-only audit log entry, recorded for every create/update
// against bid and auction entities.
type Event struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Action     EventAction     `gorm:"not null" json:"action"`
	EntityType EventEntityType `gorm:"not null" json:"entity_type"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"entity_id"`
}

// LedgerTransaction tracks a submitted on-chain transaction through to
// confirmation or rejection.
type LedgerTransaction struct {
	ID             uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
	Address        string                  `gorm:"not null;uniqueIndex" json:"address"`
	Status         LedgerTransactionStatus `gorm:"not null;default:pending;index" json:"status"`
	ConfirmedRound uint64                  `gorm:"not null;default:0" json:"confirmed_round"`
	Error          *string                 `json:"error"`
}

// PaymentCard mirrors a card registered with the external payment processor
type PaymentCard struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
	ExternalID    string            `gorm:"not null;uniqueIndex" json:"external_id"`
	UserAccountID uuid.UUID         `gorm:"type:uuid;not null" json:"user_account_id"`
	Status        PaymentCardStatus `gorm:"not null;default:pending" json:"status"`
	Owner         UserAccount       `gorm:"foreignKey:UserAccountID" json:"-"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&UserAccount{},
		&Collectible{},
		&Pack{},
		&Bid{},
		&Auction{},
		&Notification{},
		&Event{},
		&LedgerTransaction{},
		&PaymentCard{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
