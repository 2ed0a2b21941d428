package services

import (
	"context"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/apperr"
	"github.com/jaimytreling/AlgoMart/internal/models"
	"github.com/jaimytreling/AlgoMart/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PackService keeps the sellable pack inventory topped up from the published
// templates in the content service.
type PackService struct {
	db      transactor
	packs   packStore
	events  eventStore
	content contentClient
	cfg     config.PacksConfig
}

// NewPackService creates a new pack service
func NewPackService(db *gorm.DB, readOnlyDB *gorm.DB, content contentClient, cfg config.PacksConfig) *PackService {
	return &PackService{
		db:      db,
		packs:   repositories.NewPackRepository(db, readOnlyDB),
		events:  repositories.NewEventRepository(db, readOnlyDB),
		content: content,
		cfg:     cfg,
	}
}

// GeneratePacks tops the inventory of each published pack template up to the
// configured target. One transaction per run; the batch limit caps how many
// packs a single run may insert. Returns the number of packs created.
func (s *PackService) GeneratePacks(ctx context.Context) (int, error) {
	templates, err := s.content.ListPublishedPackTemplates(ctx)
	if err != nil {
		return 0, apperr.ExternalAdapter(err, "failed to list published pack templates")
	}

	created := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, template := range templates {
			count, err := s.packs.CountByTemplate(ctx, tx, template.ID)
			if err != nil {
				return err
			}

			needed := s.cfg.TargetInventory - int(count)
			if needed <= 0 {
				continue
			}
			if created+needed > s.cfg.BatchLimit {
				needed = s.cfg.BatchLimit - created
			}

			for i := 0; i < needed; i++ {
				pack := &models.Pack{
					ID:         uuid.New(),
					TemplateID: template.ID,
				}
				if err := s.packs.Create(ctx, tx, pack); err != nil {
					return err
				}
				if err := s.events.Create(ctx, tx, models.EventActionCreate, models.EventEntityPack, pack.ID); err != nil {
					return err
				}
				created++
			}

			log.Debug().
				Str("template_id", template.ID.String()).
				Int("created", needed).
				Msg("pack inventory topped up")

			if created >= s.cfg.BatchLimit {
				log.Warn().
					Int("batch_limit", s.cfg.BatchLimit).
					Msg("pack generation hit the batch limit, remaining templates deferred")
				break
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
