package services

import (
	"context"
	"strings"

	"github.com/jaimytreling/AlgoMart/internal/models"
	"github.com/jaimytreling/AlgoMart/internal/repositories"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const cardBatchLimit = 100

// PaymentService reconciles stored payment cards against the external
// payment processor.
type PaymentService struct {
	db       transactor
	cards    paymentCardStore
	events   eventStore
	payments cardStatusClient
	notifier notifier
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, readOnlyDB *gorm.DB, payments cardStatusClient, notifications notifier) *PaymentService {
	return &PaymentService{
		db:       db,
		cards:    repositories.NewPaymentCardRepository(db, readOnlyDB),
		events:   repositories.NewEventRepository(db, readOnlyDB),
		payments: payments,
		notifier: notifications,
	}
}

// UpdatePaymentCardStatuses reconciles non-terminal cards against the
// processor. A card moving to Failed enqueues a payment-failed notification
// in the same transaction. Lookup failures skip the card and leave it for the
// next run. Returns the number of cards updated.
func (s *PaymentService) UpdatePaymentCardStatuses(ctx context.Context) (int, error) {
	updated := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cards, err := s.cards.ListNonTerminal(ctx, tx, cardBatchLimit)
		if err != nil {
			return err
		}

		for _, card := range cards {
			status, err := s.payments.GetCardStatus(ctx, card.ExternalID)
			if err != nil {
				log.Warn().Err(err).
					Str("card_id", card.ExternalID).
					Msg("failed to query card status")
				continue
			}

			mapped, ok := mapCardStatus(status)
			if !ok {
				log.Warn().
					Str("card_id", card.ExternalID).
					Str("status", status).
					Msg("unknown card status from processor")
				continue
			}
			if mapped == card.Status {
				continue
			}

			if err := s.cards.SetStatus(ctx, tx, card.ID, mapped); err != nil {
				return err
			}
			if err := s.events.Create(ctx, tx, models.EventActionUpdate, models.EventEntityPaymentCard, card.ID); err != nil {
				return err
			}
			updated++

			if mapped == models.PaymentCardFailed {
				variables := map[string]string{"cardId": card.ExternalID}
				if err := s.notifier.Enqueue(ctx, tx, models.NotificationPaymentFailed, card.UserAccountID, variables); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func mapCardStatus(status string) (models.PaymentCardStatus, bool) {
	switch strings.ToLower(status) {
	case "complete":
		return models.PaymentCardComplete, true
	case "failed":
		return models.PaymentCardFailed, true
	case "pending":
		return models.PaymentCardPending, true
	case "inactive":
		return models.PaymentCardInactive, true
	default:
		return "", false
	}
}
