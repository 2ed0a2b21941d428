package services

import (
	"context"
	"crypto/ed25519"
	"testing"
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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type auctionServiceMocks struct {
	tx           *fakeTransactor
	accounts     *mockAccountStore
	collectibles *mockCollectibleStore
	auctions     *mockAuctionStore
	packs        *mockPackStore
	ledgerTxns   *mockLedgerTransactionStore
	events       *mockEventStore
	ledger       *mockLedgerClient
	content      *mockContentClient
}

var testAuctionConfig = config.AuctionConfig{
	TxnFee:              1000,
	AssetHoldingBuffer:  100000,
	NumGlobalInts:       7,
	NumGlobalByteSlices: 2,
}

func newAuctionService() (*AuctionService, *auctionServiceMocks) {
	m := &auctionServiceMocks{
		tx:           &fakeTransactor{},
		accounts:     &mockAccountStore{},
		collectibles: &mockCollectibleStore{},
		auctions:     &mockAuctionStore{},
		packs:        &mockPackStore{},
		ledgerTxns:   &mockLedgerTransactionStore{},
		events:       &mockEventStore{},
		ledger:       &mockLedgerClient{},
		content:      &mockContentClient{},
	}
	service := &AuctionService{
		db:           m.tx,
		accounts:     m.accounts,
		collectibles: m.collectibles,
		auctions:     m.auctions,
		packs:        m.packs,
		ledgerTxns:   m.ledgerTxns,
		events:       m.events,
		ledger:       m.ledger,
		content:      m.content,
		cfg:          testAuctionConfig,
		metrics:      metrics.NewMetrics(),
		tracer:       &tracing.NewRelicTracer{},
	}
	return service, m
}

const testPassphrase = "correct horse battery staple"

// testSeller builds an account with a real encrypted signing key so the
// passphrase check exercises the actual key handling.
func testSeller(t *testing.T) *models.UserAccount {
	t.Helper()

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	key := ed25519.NewKeyFromSeed(seed)

	encrypted, err := ledger.EncryptKey(seed, testPassphrase)
	require.NoError(t, err)

	return &models.UserAccount{
		ID:            uuid.New(),
		ExternalID:    "seller-1",
		Email:         "seller@example.com",
		LedgerAddress: ledger.AddressFromKey(key),
		EncryptedKey:  encrypted,
	}
}

func createRequest(collectibleID uuid.UUID) CreateAuctionRequest {
	start := time.Now().Add(time.Hour).Truncate(time.Second)
	return CreateAuctionRequest{
		ExternalUserID: "seller-1",
		Passphrase:     testPassphrase,
		CollectibleID:  collectibleID,
		ReservePrice:   5000,
		StartAt:        start,
		EndAt:          start.Add(24 * time.Hour),
	}
}

func TestCreateAuctionPersistsDeployment(t *testing.T) {
	service, m := newAuctionService()
	seller := testSeller(t)
	collectible := &models.Collectible{
		ID:         uuid.New(),
		TemplateID: uuid.New(),
		OwnerID:    &seller.ID,
		AssetIndex: 42,
	}

	m.accounts.On("GetByExternalID", mock.Anything, "seller-1").Return(seller, nil)
	m.collectibles.On("GetOwned", mock.Anything, collectible.ID, seller.ID).Return(collectible, nil)
	m.auctions.On("GetOpenByCollectible", mock.Anything, collectible.ID).Return(nil, repositories.ErrNotFound)
	m.ledger.On("CompileProgram", mock.Anything, ledger.AuctionApprovalProgram).Return([]byte{0x05, 0x01}, nil)
	m.ledger.On("CompileProgram", mock.Anything, ledger.AuctionClearStateProgram).Return([]byte{0x05, 0x02}, nil)
	m.ledger.On("AppMinBalance", mock.Anything).Return(uint64(428500))
	m.ledger.On("GetAccountInfo", mock.Anything, seller.LedgerAddress).
		Return(&ledger.AccountInfo{Amount: 1_000_000, MinBalance: 100_000}, nil)
	m.ledger.On("SubmitAppCreate", mock.Anything, mock.Anything).
		Return(&ledger.SubmitResult{TxID: "DEPLOYTX"}, nil)

	var ltx *models.LedgerTransaction
	m.ledgerTxns.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { ltx = args.Get(2).(*models.LedgerTransaction) }).
		Return(nil)
	var pack *models.Pack
	m.packs.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { pack = args.Get(2).(*models.Pack) }).
		Return(nil)
	m.auctions.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.events.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := createRequest(collectible.ID)
	auction, err := service.CreateAuction(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, models.AuctionStatusNew, auction.Status)
	require.Zero(t, auction.AppID)
	require.Equal(t, seller.ID, auction.UserAccountID)
	require.Equal(t, collectible.ID, auction.CollectibleID)

	require.NotNil(t, ltx)
	require.Equal(t, "DEPLOYTX", ltx.Address)
	require.Equal(t, models.LedgerTransactionPending, ltx.Status)
	require.Equal(t, ltx.ID, auction.LedgerTransactionID)

	require.NotNil(t, pack)
	require.Equal(t, collectible.TemplateID, pack.TemplateID)
	require.Equal(t, pack.ID, auction.PackID)

	require.Equal(t, 1, m.tx.calls)
	m.events.AssertNumberOfCalls(t, "Create", 3)
}

func TestCreateAuctionInsufficientFundsPersistsNothing(t *testing.T) {
	service, m := newAuctionService()
	seller := testSeller(t)
	collectible := &models.Collectible{ID: uuid.New(), TemplateID: uuid.New(), OwnerID: &seller.ID}

	m.accounts.On("GetByExternalID", mock.Anything, "seller-1").Return(seller, nil)
	m.collectibles.On("GetOwned", mock.Anything, collectible.ID, seller.ID).Return(collectible, nil)
	m.auctions.On("GetOpenByCollectible", mock.Anything, collectible.ID).Return(nil, repositories.ErrNotFound)
	m.ledger.On("CompileProgram", mock.Anything, mock.Anything).Return([]byte{0x05}, nil)
	m.ledger.On("AppMinBalance", mock.Anything).Return(uint64(428500))
	// Required: fee 1000 + min balance 100000 + app 428500 + buffer 100000
	m.ledger.On("GetAccountInfo", mock.Anything, seller.LedgerAddress).
		Return(&ledger.AccountInfo{Amount: 500_000, MinBalance: 100_000}, nil)

	_, err := service.CreateAuction(context.Background(), createRequest(collectible.ID))
	require.True(t, apperr.Is(err, apperr.KindInsufficientFunds))

	m.ledger.AssertNotCalled(t, "SubmitAppCreate", mock.Anything, mock.Anything)
	require.Zero(t, m.tx.calls)
}

func TestCreateAuctionInvalidPassphrase(t *testing.T) {
	service, m := newAuctionService()
	seller := testSeller(t)

	m.accounts.On("GetByExternalID", mock.Anything, "seller-1").Return(seller, nil)

	req := createRequest(uuid.New())
	req.Passphrase = "wrong passphrase"

	_, err := service.CreateAuction(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
	require.Zero(t, m.tx.calls)
}

func TestCreateAuctionRejectsSecondOpenAuction(t *testing.T) {
	service, m := newAuctionService()
	seller := testSeller(t)
	collectible := &models.Collectible{ID: uuid.New(), TemplateID: uuid.New(), OwnerID: &seller.ID}

	m.accounts.On("GetByExternalID", mock.Anything, "seller-1").Return(seller, nil)
	m.collectibles.On("GetOwned", mock.Anything, collectible.ID, seller.ID).Return(collectible, nil)
	m.auctions.On("GetOpenByCollectible", mock.Anything, collectible.ID).
		Return(&models.Auction{ID: uuid.New(), Status: models.AuctionStatusActive}, nil)

	_, err := service.CreateAuction(context.Background(), createRequest(collectible.ID))
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Contains(t, err.Error(), "open auction")
}

func TestCreateAuctionUnownedCollectible(t *testing.T) {
	service, m := newAuctionService()
	seller := testSeller(t)
	collectibleID := uuid.New()

	m.accounts.On("GetByExternalID", mock.Anything, "seller-1").Return(seller, nil)
	m.collectibles.On("GetOwned", mock.Anything, collectibleID, seller.ID).Return(nil, repositories.ErrNotFound)

	_, err := service.CreateAuction(context.Background(), createRequest(collectibleID))
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateAuctionRejectsInvertedWindow(t *testing.T) {
	service, _ := newAuctionService()

	req := createRequest(uuid.New())
	req.EndAt = req.StartAt.Add(-time.Hour)

	_, err := service.CreateAuction(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetAuctionNotFound(t *testing.T) {
	service, m := newAuctionService()

	id := uuid.New()
	m.auctions.On("GetDetails", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	_, err := service.GetAuction(context.Background(), id)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetAuctionEnrichesWithTemplate(t *testing.T) {
	service, m := newAuctionService()

	templateID := uuid.New()
	auction := &models.Auction{
		ID:          uuid.New(),
		Collectible: models.Collectible{ID: uuid.New(), TemplateID: templateID},
	}
	m.auctions.On("GetDetails", mock.Anything, auction.ID).Return(auction, nil)
	m.content.On("GetCollectibleTemplate", mock.Anything, templateID).
		Return(&cms.CollectibleTemplate{ID: templateID, Title: "Golden Ticket"}, nil)

	details, err := service.GetAuction(context.Background(), auction.ID)
	require.NoError(t, err)
	require.Equal(t, "Golden Ticket", details.Collectible.Title)
}

func TestGetAuctionSurvivesTemplateFailure(t *testing.T) {
	service, m := newAuctionService()

	auction := &models.Auction{
		ID:          uuid.New(),
		Collectible: models.Collectible{TemplateID: uuid.New()},
	}
	m.auctions.On("GetDetails", mock.Anything, auction.ID).Return(auction, nil)
	m.content.On("GetCollectibleTemplate", mock.Anything, mock.Anything).
		Return(nil, errors.New("cms down"))

	details, err := service.GetAuction(context.Background(), auction.ID)
	require.NoError(t, err)
	require.Nil(t, details.Collectible)
}

func TestReconcileActivatesConfirmedAuctions(t *testing.T) {
	service, m := newAuctionService()

	confirmed := models.LedgerTransaction{ID: uuid.New(), Address: "TX-OK", Status: models.LedgerTransactionPending}
	rejected := models.LedgerTransaction{ID: uuid.New(), Address: "TX-BAD", Status: models.LedgerTransactionPending}
	stillPending := models.LedgerTransaction{ID: uuid.New(), Address: "TX-WAIT", Status: models.LedgerTransactionPending}

	m.ledgerTxns.On("ListPending", mock.Anything, mock.Anything, reconcileBatchLimit).
		Return([]models.LedgerTransaction{confirmed, rejected, stillPending}, nil)
	m.ledger.On("PendingTransaction", mock.Anything, "TX-OK").
		Return(&ledger.PendingInfo{ConfirmedRound: 1200, ApplicationIndex: 77}, nil)
	m.ledger.On("PendingTransaction", mock.Anything, "TX-BAD").
		Return(&ledger.PendingInfo{PoolError: "overspend"}, nil)
	m.ledger.On("PendingTransaction", mock.Anything, "TX-WAIT").
		Return(&ledger.PendingInfo{}, nil)

	m.ledgerTxns.On("SetStatus", mock.Anything, mock.Anything, confirmed.ID, models.LedgerTransactionConfirmed, uint64(1200), "").Return(nil)
	m.ledgerTxns.On("SetStatus", mock.Anything, mock.Anything, rejected.ID, models.LedgerTransactionFailed, uint64(0), "overspend").Return(nil)

	auction := models.Auction{
		ID:                  uuid.New(),
		Status:              models.AuctionStatusNew,
		LedgerTransactionID: confirmed.ID,
	}
	m.auctions.On("ListNewByLedgerTransaction", mock.Anything, mock.Anything, []uuid.UUID{confirmed.ID}).
		Return([]models.Auction{auction}, nil)
	m.auctions.On("Activate", mock.Anything, mock.Anything, auction.ID, uint64(77)).Return(nil)
	m.events.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resolved, err := service.ReconcileLedgerTransactions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, resolved)

	m.auctions.AssertCalled(t, "Activate", mock.Anything, mock.Anything, auction.ID, uint64(77))
	m.ledgerTxns.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, stillPending.ID, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileSkipsLookupFailures(t *testing.T) {
	service, m := newAuctionService()

	pending := models.LedgerTransaction{ID: uuid.New(), Address: "TX-ERR", Status: models.LedgerTransactionPending}

	m.ledgerTxns.On("ListPending", mock.Anything, mock.Anything, reconcileBatchLimit).
		Return([]models.LedgerTransaction{pending}, nil)
	m.ledger.On("PendingTransaction", mock.Anything, "TX-ERR").
		Return(nil, errors.New("node unavailable"))
	m.auctions.On("ListNewByLedgerTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	resolved, err := service.ReconcileLedgerTransactions(context.Background())
	require.NoError(t, err)
	require.Zero(t, resolved)

	m.ledgerTxns.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
