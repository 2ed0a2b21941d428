package services

import (
	"context"
	"strconv"
	"time"

	"github.com/jaimytreling/AlgoMart/internal/apperr"
	"github.com/jaimytreling/AlgoMart/internal/metrics"
	"github.com/jaimytreling/AlgoMart/internal/models"
	"github.com/jaimytreling/AlgoMart/internal/repositories"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PlaceBidRequest carries one bid offer against a pack
type PlaceBidRequest struct {
	PackID         uuid.UUID `json:"pack_id" binding:"required"`
	ExternalUserID string    `json:"external_user_id" binding:"required"`
	Amount         int64     `json:"amount" binding:"required,gt=0"`
	Currency       string    `json:"currency"`
}

// BidService accepts bids against packs. Bid placement is serialized per pack
// by a row lock held for the duration of the enclosing transaction; there is
// no process-level mutex.
type BidService struct {
	db       transactor
	packs    packStore
	bids     bidStore
	accounts accountStore
	auctions auctionStore
	events   eventStore
	currency currencyConverter
	notifier notifier
	content  contentClient
	indexer  packIndexer
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
}

// NewBidService creates a new bid service
func NewBidService(db *gorm.DB, readOnlyDB *gorm.DB, currency currencyConverter, notifications notifier, content contentClient, indexer packIndexer, m *metrics.Metrics, tracer tracing.Tracer) *BidService {
	return &BidService{
		db:       db,
		packs:    repositories.NewPackRepository(db, readOnlyDB),
		bids:     repositories.NewBidRepository(db, readOnlyDB),
		accounts: repositories.NewUserAccountRepository(db, readOnlyDB),
		auctions: repositories.NewAuctionRepository(db, readOnlyDB),
		events:   repositories.NewEventRepository(db, readOnlyDB),
		currency: currency,
		notifier: notifications,
		content:  content,
		indexer:  indexer,
		metrics:  m,
		tracer:   tracer,
	}
}

// PlaceBid accepts a bid when it is strictly higher than the pack's current
// high bid. The accepted bid, its audit events, the winner pointer move and
// any notifications commit atomically; on any failure nothing persists.
func (s *BidService) PlaceBid(ctx context.Context, req PlaceBidRequest) (*models.Bid, error) {
	txn := s.tracer.StartTransaction("bids.place")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()

	bid, err := s.placeBid(ctx, req)
	s.metrics.RecordTimer("place_bid_ms", time.Since(start).Milliseconds())
	if err != nil {
		s.metrics.RecordError("place_bid")
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	s.metrics.RecordSuccess("place_bid")
	s.metrics.IncrementCounter("bids_placed")
	return bid, nil
}

func (s *BidService) placeBid(ctx context.Context, req PlaceBidRequest) (*models.Bid, error) {
	if req.Amount <= 0 {
		return nil, apperr.Validation("bid amount must be positive")
	}

	// Normalize before taking the pack lock: the rate lookup may leave the
	// process and must not extend the lock hold time.
	amount, err := s.currency.Convert(ctx, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	bidder, err := s.accounts.GetByExternalID(ctx, req.ExternalUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("account is not registered")
		}
		return nil, err
	}

	var placed *models.Bid
	var indexPack *models.Pack

	err = s.db.Transaction(func(tx *gorm.DB) error {
		pack, err := s.packs.GetForUpdate(ctx, tx, req.PackID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("pack not found")
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The winner pointer references a bid row that does not
				// exist. This is a bug, not a user error.
				log.Error().
					Str("pack_id", req.PackID.String()).
					Msg("pack references a missing active bid")
				return apperr.Invariant("pack references a missing active bid")
			}
			return err
		}

		if pack.ExpiresAt != nil && time.Now().After(*pack.ExpiresAt) {
			return apperr.Validation("bidding on this pack has ended")
		}
		if _, err := s.auctions.GetClosedByPack(ctx, tx, pack.ID); err == nil {
			return apperr.Validation("auction has closed")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		var currentHigh int64
		var previousBidder *uuid.UUID
		if pack.ActiveBid != nil {
			currentHigh = pack.ActiveBid.Amount
			id := pack.ActiveBid.UserAccountID
			previousBidder = &id
		}

		if amount <= currentHigh {
			return apperr.Validation("bid is not higher than the previous bid")
		}

		bid := &models.Bid{
			ID:            uuid.New(),
			PackID:        pack.ID,
			UserAccountID: bidder.ID,
			Amount:        amount,
		}
		if err := s.bids.Create(ctx, tx, bid); err != nil {
			return err
		}
		if err := s.events.Create(ctx, tx, models.EventActionCreate, models.EventEntityBid, bid.ID); err != nil {
			return err
		}

		if err := s.packs.SetActiveBid(ctx, tx, pack.ID, bid.ID); err != nil {
			return err
		}
		if err := s.events.Create(ctx, tx, models.EventActionUpdate, models.EventEntityPack, pack.ID); err != nil {
			return err
		}

		if previousBidder != nil && *previousBidder != bidder.ID {
			variables := s.packVariables(ctx, pack, amount)
			if err := s.notifier.Enqueue(ctx, tx, models.NotificationUserOutbid, *previousBidder, variables); err != nil {
				return err
			}
			if err := s.notifier.Enqueue(ctx, tx, models.NotificationUserHighBid, bidder.ID, variables); err != nil {
				return err
			}
		}

		placed = bid
		pack.ActiveBidID = &bid.ID
		pack.ActiveBid = bid
		indexPack = pack
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindexPack(ctx, indexPack)

	log.Info().
		Str("pack_id", req.PackID.String()).
		Str("bid_id", placed.ID.String()).
		Int64("amount", amount).
		Msg("bid accepted")
	return placed, nil
}

// ListPackBids returns a pack's bid history, newest first
func (s *BidService) ListPackBids(ctx context.Context, packID uuid.UUID) ([]models.Bid, error) {
	if _, err := s.packs.GetByID(ctx, packID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("pack not found")
		}
		return nil, err
	}
	return s.bids.ListByPack(ctx, packID)
}

// SearchPacks queries the marketplace index by pack title
func (s *BidService) SearchPacks(ctx context.Context, term string) ([]map[string]interface{}, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"title": term,
			},
		},
	}
	docs, err := s.indexer.SearchPacks(ctx, query)
	if err != nil {
		return nil, apperr.ExternalAdapter(err, "pack search failed")
	}
	return docs, nil
}

// packVariables resolves the display variables for bid notifications. The
// CMS lookup is best effort: a missing title must not fail the bid.
func (s *BidService) packVariables(ctx context.Context, pack *models.Pack, amount int64) map[string]string {
	variables := map[string]string{
		"packId": pack.ID.String(),
		"amount": strconv.FormatInt(amount, 10),
	}
	template, err := s.content.GetPackTemplate(ctx, pack.TemplateID)
	if err != nil {
		log.Warn().Err(err).
			Str("template_id", pack.TemplateID.String()).
			Msg("failed to load pack template for notification")
		return variables
	}
	variables["packTitle"] = template.Title
	variables["packSlug"] = template.Slug
	return variables
}

// reindexPack refreshes the marketplace search document after a commit.
// Best effort: the bid already committed, so index failures are only logged.
func (s *BidService) reindexPack(ctx context.Context, pack *models.Pack) {
	if pack == nil {
		return
	}

	slug, title := "", ""
	if template, err := s.content.GetPackTemplate(ctx, pack.TemplateID); err == nil {
		slug, title = template.Slug, template.Title
	}

	if err := s.indexer.IndexPack(ctx, pack, slug, title); err != nil {
		log.Warn().Err(err).
			Str("pack_id", pack.ID.String()).
			Msg("failed to reindex pack after bid")
	}
}
