package services

import (
	"context"
	"time"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/apperr"
	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/ledger"
	"github.com/jaimytreling/AlgoMart/internal/metrics"
	"github.com/jaimytreling/AlgoMart/internal/models"
	"github.com/jaimytreling/AlgoMart/internal/repositories"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const reconcileBatchLimit = 50

// CreateAuctionRequest carries the inputs for a new auction
type CreateAuctionRequest struct {
	ExternalUserID string    `json:"external_user_id" binding:"required"`
	Passphrase     string    `json:"passphrase" binding:"required"`
	CollectibleID  uuid.UUID `json:"collectible_id" binding:"required"`
	ReservePrice   int64     `json:"reserve_price" binding:"required,gt=0"`
	StartAt        time.Time `json:"start_at" binding:"required"`
	EndAt          time.Time `json:"end_at" binding:"required"`
}

// AuctionDetails is the read model for one auction: the stored row with its
// bid history plus the collectible's display metadata.
type AuctionDetails struct {
	Auction     *models.Auction          `json:"auction"`
	Collectible *cms.CollectibleTemplate `json:"collectible"`
}

// AuctionService originates auctions as on-chain application deployments and
// reconciles their asynchronous confirmation.
type AuctionService struct {
	db           transactor
	accounts     accountStore
	collectibles collectibleStore
	auctions     auctionStore
	packs        packStore
	ledgerTxns   ledgerTransactionStore
	events       eventStore
	ledger       ledgerClient
	content      contentClient
	cfg          config.AuctionConfig
	metrics      *metrics.Metrics
	tracer       tracing.Tracer
}

// NewAuctionService creates a new auction service
func NewAuctionService(db *gorm.DB, readOnlyDB *gorm.DB, ledgerAdapter ledgerClient, content contentClient, cfg config.AuctionConfig, m *metrics.Metrics, tracer tracing.Tracer) *AuctionService {
	return &AuctionService{
		db:           db,
		accounts:     repositories.NewUserAccountRepository(db, readOnlyDB),
		collectibles: repositories.NewCollectibleRepository(db, readOnlyDB),
		auctions:     repositories.NewAuctionRepository(db, readOnlyDB),
		packs:        repositories.NewPackRepository(db, readOnlyDB),
		ledgerTxns:   repositories.NewLedgerTransactionRepository(db, readOnlyDB),
		events:       repositories.NewEventRepository(db, readOnlyDB),
		ledger:       ledgerAdapter,
		content:      content,
		cfg:          cfg,
		metrics:      m,
		tracer:       tracer,
	}
}

// CreateAuction deploys the auction application on chain and records the
// auction. The deployment returns on pending-pool acceptance, not finality:
// the auction starts in the New state and activates once the reconciliation
// task observes the confirmation. The ledger transaction, pack, auction and
// audit events commit in one transaction; if any insert fails nothing
// persists.
func (s *AuctionService) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	txn := s.tracer.StartTransaction("auctions.create")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()

	auction, err := s.createAuction(ctx, req)
	s.metrics.RecordTimer("create_auction_ms", time.Since(start).Milliseconds())
	if err != nil {
		s.metrics.RecordError("create_auction")
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	s.metrics.RecordSuccess("create_auction")
	s.metrics.IncrementCounter("auctions_created")
	return auction, nil
}

func (s *AuctionService) createAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	if req.ReservePrice <= 0 {
		return nil, apperr.Validation("reserve price must be positive")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, apperr.Validation("auction must end after it starts")
	}

	seller, err := s.accounts.GetByExternalID(ctx, req.ExternalUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("account is not registered")
		}
		return nil, err
	}

	key, err := ledger.DecryptKey(seller.EncryptedKey, req.Passphrase)
	if err != nil {
		return nil, apperr.InvalidCredentials("invalid passphrase")
	}

	collectible, err := s.collectibles.GetOwned(ctx, req.CollectibleID, seller.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("collectible not found")
		}
		return nil, err
	}

	if _, err := s.auctions.GetOpenByCollectible(ctx, collectible.ID); err == nil {
		return nil, apperr.Validation("collectible already has an open auction")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	approval, err := s.ledger.CompileProgram(ctx, ledger.AuctionApprovalProgram)
	if err != nil {
		return nil, apperr.ExternalAdapter(err, "failed to compile approval program")
	}
	clear, err := s.ledger.CompileProgram(ctx, ledger.AuctionClearStateProgram)
	if err != nil {
		return nil, apperr.ExternalAdapter(err, "failed to compile clear-state program")
	}

	schema := ledger.AppSchema{
		NumGlobalInts:       s.cfg.NumGlobalInts,
		NumGlobalByteSlices: s.cfg.NumGlobalByteSlices,
	}

	info, err := s.ledger.GetAccountInfo(ctx, seller.LedgerAddress)
	if err != nil {
		return nil, apperr.ExternalAdapter(err, "failed to load seller account")
	}
	required := s.cfg.TxnFee + info.MinBalance + s.ledger.AppMinBalance(schema) + s.cfg.AssetHoldingBuffer
	if info.Amount < required {
		return nil, apperr.InsufficientFunds("insufficient balance to create auction")
	}

	sellerKey, err := ledger.DecodePublicKey(seller.LedgerAddress)
	if err != nil {
		return nil, errors.Wrap(err, "invalid seller ledger address")
	}

	result, err := s.ledger.SubmitAppCreate(ctx, ledger.AppCreateParams{
		Sender:          seller.LedgerAddress,
		Key:             key,
		ApprovalProgram: approval,
		ClearProgram:    clear,
		Schema:          schema,
		AppArgs: [][]byte{
			sellerKey,
			ledger.EncodeUint64(collectible.AssetIndex),
			ledger.EncodeUint64(uint64(req.StartAt.Unix())),
			ledger.EncodeUint64(uint64(req.EndAt.Unix())),
			ledger.EncodeUint64(uint64(req.ReservePrice)),
			ledger.EncodeUint64(s.cfg.AssetHoldingBuffer),
		},
	})
	if err != nil {
		return nil, apperr.ExternalAdapter(err, "failed to submit auction deployment")
	}

	var auction *models.Auction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ltx := &models.LedgerTransaction{
			ID:      uuid.New(),
			Address: result.TxID,
			Status:  models.LedgerTransactionPending,
		}
		if err := s.ledgerTxns.Create(ctx, tx, ltx); err != nil {
			return err
		}
		if err := s.events.Create(ctx, tx, models.EventActionCreate, models.EventEntityLedgerTransaction, ltx.ID); err != nil {
			return err
		}

		pack := &models.Pack{
			ID:         uuid.New(),
			TemplateID: collectible.TemplateID,
			OwnerID:    &seller.ID,
			ExpiresAt:  &req.EndAt,
		}
		if err := s.packs.Create(ctx, tx, pack); err != nil {
			return err
		}
		if err := s.events.Create(ctx, tx, models.EventActionCreate, models.EventEntityPack, pack.ID); err != nil {
			return err
		}

		auction = &models.Auction{
			ID:                  uuid.New(),
			CollectibleID:       collectible.ID,
			UserAccountID:       seller.ID,
			PackID:              pack.ID,
			ReservePrice:        req.ReservePrice,
			StartAt:             req.StartAt,
			EndAt:               req.EndAt,
			Status:              models.AuctionStatusNew,
			LedgerTransactionID: ltx.ID,
		}
		if err := s.auctions.Create(ctx, tx, auction); err != nil {
			return err
		}
		return s.events.Create(ctx, tx, models.EventActionCreate, models.EventEntityAuction, auction.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("collectible_id", collectible.ID.String()).
		Str("txid", result.TxID).
		Msg("auction deployment submitted")
	return auction, nil
}

// GetAuction loads an auction with its bid history, bidder accounts and the
// collectible's display metadata.
func (s *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (*AuctionDetails, error) {
	auction, err := s.auctions.GetDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("auction not found")
		}
		return nil, err
	}

	details := &AuctionDetails{Auction: auction}

	// Display metadata is best effort on the read path.
	template, err := s.content.GetCollectibleTemplate(ctx, auction.Collectible.TemplateID)
	if err != nil {
		log.Warn().Err(err).
			Str("template_id", auction.Collectible.TemplateID.String()).
			Msg("failed to load collectible template")
		return details, nil
	}
	details.Collectible = template
	return details, nil
}

// ReconcileLedgerTransactions confirms pending ledger transactions against
// the chain. Rejected transactions are marked Failed; confirmed ones are
// marked Confirmed and any New auctions they created move to Active with the
// assigned application ID. Returns the number of transactions resolved.
func (s *AuctionService) ReconcileLedgerTransactions(ctx context.Context) (int, error) {
	resolved := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pending, err := s.ledgerTxns.ListPending(ctx, tx, reconcileBatchLimit)
		if err != nil {
			return err
		}

		var confirmedIDs []uuid.UUID
		appIDs := make(map[uuid.UUID]uint64)

		for _, ltx := range pending {
			info, err := s.ledger.PendingTransaction(ctx, ltx.Address)
			if err != nil {
				log.Warn().Err(err).
					Str("txid", ltx.Address).
					Msg("failed to query pending transaction")
				continue
			}

			switch {
			case info.PoolError != "":
				if err := s.ledgerTxns.SetStatus(ctx, tx, ltx.ID, models.LedgerTransactionFailed, 0, info.PoolError); err != nil {
					return err
				}
				if err := s.events.Create(ctx, tx, models.EventActionUpdate, models.EventEntityLedgerTransaction, ltx.ID); err != nil {
					return err
				}
				resolved++
			case info.ConfirmedRound > 0:
				if err := s.ledgerTxns.SetStatus(ctx, tx, ltx.ID, models.LedgerTransactionConfirmed, info.ConfirmedRound, ""); err != nil {
					return err
				}
				if err := s.events.Create(ctx, tx, models.EventActionUpdate, models.EventEntityLedgerTransaction, ltx.ID); err != nil {
					return err
				}
				confirmedIDs = append(confirmedIDs, ltx.ID)
				appIDs[ltx.ID] = info.ApplicationIndex
				resolved++
			}
		}

		auctions, err := s.auctions.ListNewByLedgerTransaction(ctx, tx, confirmedIDs)
		if err != nil {
			return err
		}
		for _, auction := range auctions {
			appID := appIDs[auction.LedgerTransactionID]
			if appID == 0 {
				log.Error().
					Str("auction_id", auction.ID.String()).
					Msg("confirmed deployment is missing an application index")
				continue
			}
			if err := s.auctions.Activate(ctx, tx, auction.ID, appID); err != nil {
				if errors.Is(err, repositories.ErrUpdateFailed) {
					log.Error().
						Str("auction_id", auction.ID.String()).
						Msg("auction left the New state outside reconciliation")
					continue
				}
				return err
			}
			if err := s.events.Create(ctx, tx, models.EventActionUpdate, models.EventEntityAuction, auction.ID); err != nil {
				return err
			}
			log.Info().
				Str("auction_id", auction.ID.String()).
				Uint64("app_id", appID).
				Msg("auction activated")
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "ledger reconciliation pass failed")
	}
	return resolved, nil
}
