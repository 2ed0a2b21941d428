package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jaimytreling/AlgoMart/internal/models"
	"github.com/jaimytreling/AlgoMart/internal/repositories"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const dispatchBatchLimit = 100

// NotificationService manages the transactional notification queue. Messages
// are enqueued inside the transaction that caused them and delivered
// asynchronously by the dispatch task with at-least-once semantics.
type NotificationService struct {
	db            transactor
	notifications notificationStore
	sender        messageSender
	tracer        tracing.Tracer
}

// NewNotificationService creates a new notification service. The sender may
// be nil in processes that only enqueue.
func NewNotificationService(db *gorm.DB, readOnlyDB *gorm.DB, sender messageSender, tracer tracing.Tracer) *NotificationService {
	return &NotificationService{
		db:            db,
		notifications: repositories.NewNotificationRepository(db, readOnlyDB),
		sender:        sender,
		tracer:        tracer,
	}
}

// Enqueue inserts a pending notification within the caller's transaction
// scope. It becomes visible to the dispatcher only when that transaction
// commits.
func (s *NotificationService) Enqueue(ctx context.Context, tx *gorm.DB, typ models.NotificationType, recipientID uuid.UUID, variables map[string]string) error {
	encoded, err := json.Marshal(variables)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification variables")
	}

	notification := &models.Notification{
		ID:            uuid.New(),
		Type:          typ,
		UserAccountID: recipientID,
		Variables:     encoded,
		Status:        models.NotificationStatusPending,
	}
	return s.notifications.Create(ctx, tx, notification)
}

// DispatchPending delivers queued notifications. The pass runs in one
// transaction: a delivery failure marks that item Failed without aborting the
// batch, while a pass-level failure rolls every status change back so the
// items are retried. Returns the number of notifications sent.
func (s *NotificationService) DispatchPending(ctx context.Context) (int, error) {
	if s.sender == nil {
		return 0, errors.New("no message sender configured")
	}

	txn := s.tracer.StartTransaction("notifications.dispatch")
	defer s.tracer.EndTransaction(txn)

	sent := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pending, err := s.notifications.ListPending(ctx, tx, dispatchBatchLimit)
		if err != nil {
			return err
		}

		for _, notification := range pending {
			message, renderErr := renderNotification(&notification)
			if renderErr != nil {
				log.Warn().Err(renderErr).
					Str("notification_id", notification.ID.String()).
					Msg("failed to render notification")
				if err := s.notifications.SetStatus(ctx, tx, notification.ID, models.NotificationStatusFailed, renderErr.Error()); err != nil {
					return err
				}
				continue
			}

			if sendErr := s.sender.SendMessage(ctx, message); sendErr != nil {
				log.Warn().Err(sendErr).
					Str("notification_id", notification.ID.String()).
					Str("type", string(notification.Type)).
					Msg("failed to deliver notification")
				if err := s.notifications.SetStatus(ctx, tx, notification.ID, models.NotificationStatusFailed, sendErr.Error()); err != nil {
					return err
				}
				continue
			}

			if err := s.notifications.SetStatus(ctx, tx, notification.ID, models.NotificationStatusSent, ""); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, errors.Wrap(err, "notification dispatch pass failed")
	}

	return sent, nil
}

// notificationMessage is the payload delivered to the messaging queue for
// downstream channel fan-out.
type notificationMessage struct {
	NotificationID string            `json:"notification_id"`
	Type           string            `json:"type"`
	Email          string            `json:"email"`
	Locale         string            `json:"locale"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	Variables      map[string]string `json:"variables"`
	QueuedAt       time.Time         `json:"queued_at"`
}

var notificationTemplates = map[models.NotificationType]struct {
	subject string
	body    string
}{
	models.NotificationUserOutbid: {
		subject: "You were outbid",
		body:    "Someone placed a higher bid on {{packTitle}}. Place a new bid to stay in the running.",
	},
	models.NotificationUserHighBid: {
		subject: "You have the highest bid",
		body:    "Your bid on {{packTitle}} is now the highest. We'll let you know if that changes.",
	},
	models.NotificationPaymentFailed: {
		subject: "Payment method needs attention",
		body:    "We couldn't verify your payment method ending in {{cardId}}. Please update it to keep bidding.",
	},
}

func renderNotification(n *models.Notification) (*notificationMessage, error) {
	template, ok := notificationTemplates[n.Type]
	if !ok {
		return nil, errors.Errorf("unknown notification type %q", n.Type)
	}

	variables := map[string]string{}
	if len(n.Variables) > 0 {
		if err := json.Unmarshal(n.Variables, &variables); err != nil {
			return nil, errors.Wrap(err, "failed to decode notification variables")
		}
	}

	body := template.body
	for key, value := range variables {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}

	return &notificationMessage{
		NotificationID: n.ID.String(),
		Type:           string(n.Type),
		Email:          n.Recipient.Email,
		Locale:         n.Recipient.Locale,
		Subject:        template.subject,
		Body:           body,
		Variables:      variables,
		QueuedAt:       n.CreatedAt,
	}, nil
}
