package services

import (
	"context"
	"testing"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/apperr"
	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPackService(target, batchLimit int) (*PackService, *fakeTransactor, *mockPackStore, *mockEventStore, *mockContentClient) {
	tx := &fakeTransactor{}
	packs := &mockPackStore{}
	events := &mockEventStore{}
	content := &mockContentClient{}
	service := &PackService{
		db:      tx,
		packs:   packs,
		events:  events,
		content: content,
		cfg:     config.PacksConfig{TargetInventory: target, BatchLimit: batchLimit},
	}
	return service, tx, packs, events, content
}

func TestGeneratePacksTopsUpInventory(t *testing.T) {
	service, _, packs, events, content := newPackService(5, 500)

	lowTemplate := cms.PackTemplate{ID: uuid.New(), Slug: "starter", Title: "Starter Pack", Published: true}
	fullTemplate := cms.PackTemplate{ID: uuid.New(), Slug: "rare", Title: "Rare Pack", Published: true}

	content.On("ListPublishedPackTemplates", mock.Anything).
		Return([]cms.PackTemplate{lowTemplate, fullTemplate}, nil)
	packs.On("CountByTemplate", mock.Anything, mock.Anything, lowTemplate.ID).Return(int64(2), nil)
	packs.On("CountByTemplate", mock.Anything, mock.Anything, fullTemplate.ID).Return(int64(5), nil)

	var created []*models.Pack
	packs.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Pack")).
		Run(func(args mock.Arguments) { created = append(created, args.Get(2).(*models.Pack)) }).
		Return(nil)
	events.On("Create", mock.Anything, mock.Anything, models.EventActionCreate, models.EventEntityPack, mock.Anything).Return(nil)

	count, err := service.GeneratePacks(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)

	require.Len(t, created, 3)
	for _, pack := range created {
		require.Equal(t, lowTemplate.ID, pack.TemplateID)
	}
	events.AssertNumberOfCalls(t, "Create", 3)
}

func TestGeneratePacksHonorsBatchLimit(t *testing.T) {
	service, _, packs, events, content := newPackService(10, 4)

	template := cms.PackTemplate{ID: uuid.New(), Slug: "starter", Title: "Starter Pack", Published: true}
	content.On("ListPublishedPackTemplates", mock.Anything).Return([]cms.PackTemplate{template}, nil)
	packs.On("CountByTemplate", mock.Anything, mock.Anything, template.ID).Return(int64(0), nil)
	packs.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	events.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	count, err := service.GeneratePacks(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, count)
	packs.AssertNumberOfCalls(t, "Create", 4)
}

func TestGeneratePacksNoTemplates(t *testing.T) {
	service, tx, packs, _, content := newPackService(5, 500)

	content.On("ListPublishedPackTemplates", mock.Anything).Return([]cms.PackTemplate{}, nil)

	count, err := service.GeneratePacks(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Equal(t, 1, tx.calls)
	packs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGeneratePacksContentFailure(t *testing.T) {
	service, tx, _, _, content := newPackService(5, 500)

	content.On("ListPublishedPackTemplates", mock.Anything).Return(nil, errors.New("cms down"))

	_, err := service.GeneratePacks(context.Background())
	require.True(t, apperr.Is(err, apperr.KindExternalAdapter))
	require.Zero(t, tx.calls)
}
