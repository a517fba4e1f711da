package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/payment"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// --- Mock repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Load(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	args := m.Called(ctx, sessionID, lines)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// --- Stub collaborators ---

type stubIdentities struct {
	email string
	ok    bool
}

func (s stubIdentities) Identify(string) (string, bool) {
	return s.email, s.ok
}

type failingProcessor struct{}

func (failingProcessor) Charge(context.Context, int64, payment.Card) (*payment.Receipt, error) {
	return nil, errors.New("card declined")
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(repo *mockCartRepository, identities Identities) *CartStore {
	logger := newTestLogger()
	// A Kafka producer pointed at an unreachable broker: publishes fail and
	// are logged, which is exactly the best-effort contract under test.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
	return NewCartStore(repo, producer, identities, payment.NewSimulator(), logger)
}

func farmTools() domain.Product {
	return domain.Product{
		ID:          1,
		Name:        "Farm Tools Set",
		Price:       69999,
		Description: "Reliable Tools",
		Image:       "images/tools.jpeg",
		Category:    "garden",
	}
}

// --- AddItem ---

func TestAddItem_NewLine(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	view, err := store.AddItem(ctx, "sess-1", farmTools())

	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(1), view.Lines[0].ProductID)
	assert.Equal(t, 1, view.Lines[0].Quantity)
	assert.Equal(t, int64(69999), view.GrandTotal)

	repo.AssertExpectations(t)
}

func TestAddItem_SameProductMerges(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	_, err := store.AddItem(ctx, "sess-1", farmTools())
	require.NoError(t, err)

	view, err := store.AddItem(ctx, "sess-1", farmTools())
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, int64(139998), view.GrandTotal)

	repo.AssertExpectations(t)
}

func TestAddItem_EmptySessionID(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})

	_, err := store.AddItem(context.Background(), "", farmTools())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_InvalidProductID(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})

	_, err := store.AddItem(context.Background(), "sess-1", domain.Product{ID: 0, Price: 100})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_NegativePrice(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})

	_, err := store.AddItem(context.Background(), "sess-1", domain.Product{ID: 1, Price: -1})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// A persistence failure is logged and counted, but the in-memory mutation
// stands and the operation reports success.
func TestAddItem_PersistFailureDoesNotRollBack(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(errors.New("redis down"))

	view, err := store.AddItem(ctx, "sess-1", farmTools())

	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	// The cart remains readable and correct in-memory.
	assert.Equal(t, 1, store.Count(ctx, "sess-1"))
	assert.Equal(t, int64(69999), store.Total(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

// --- Hydration ---

func TestHydration_LoadsPersistedLinesOnce(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	persisted := []domain.CartLine{
		{Product: farmTools(), Quantity: 3},
	}
	repo.On("Load", ctx, "sess-1").Return(persisted, nil).Once()

	view, err := store.View(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, int64(209997), view.GrandTotal)

	// Subsequent reads come from memory; Load is not called again.
	assert.Equal(t, 3, store.Count(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

func TestHydration_LoadFailureDegradesToEmptyCart(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, errors.New("storage unavailable")).Once()

	view, err := store.View(ctx, "sess-1")

	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 0, view.ItemCount)

	repo.AssertExpectations(t)
}

// --- RemoveItem ---

func TestRemoveItem(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	view, err := store.RemoveItem(ctx, "sess-1", 1)

	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, int64(0), view.GrandTotal)

	repo.AssertExpectations(t)
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()

	// No Save expectation: a no-op must not touch the repository.
	view, err := store.RemoveItem(ctx, "sess-1", 42)

	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	repo.AssertExpectations(t)
}

// --- AdjustQuantity ---

func TestAdjustQuantity_Increment(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	view, err := store.AdjustQuantity(ctx, "sess-1", 1, 1)

	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)

	repo.AssertExpectations(t)
}

func TestAdjustQuantity_ToZeroRemovesLine(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	view, err := store.AdjustQuantity(ctx, "sess-1", 1, -2)

	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	repo.AssertExpectations(t)
}

func TestAdjustQuantity_AbsentIsNoop(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()

	view, err := store.AdjustQuantity(ctx, "sess-1", 42, 1)

	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	repo.AssertExpectations(t)
}

// --- Clear ---

func TestClear(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Delete", ctx, "sess-1").Return(nil)

	view, err := store.Clear(ctx, "sess-1")

	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 0, store.Count(ctx, "sess-1"))
	assert.Equal(t, int64(0), store.Total(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

// --- Checkout ---

func TestCheckout_Success(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{email: "farmer@example.com", ok: true})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Delete", ctx, "sess-1").Return(nil)

	receipt, err := store.Checkout(ctx, "sess-1", payment.Card{Number: "4242424242424242", Expiry: "12/30", CVC: "123"})

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, int64(139998), receipt.Amount)

	// Checkout success clears the cart.
	assert.Equal(t, 0, store.Count(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

func TestCheckout_RejectedWithoutIdentity(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{ok: false})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 2}}, nil).Once()
	repo.On("Save", ctx, "sess-1", mock.AnythingOfType("[]domain.CartLine")).Return(nil).Maybe()

	// Seed a non-empty cart, then attempt checkout unidentified.
	_, err := store.AddItem(ctx, "sess-1", farmTools())
	require.NoError(t, err)

	receipt, err := store.Checkout(ctx, "sess-1", payment.Card{})

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// The rejection did not mutate the cart.
	assert.NotZero(t, store.Count(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

func TestCheckout_RejectedWhenCartEmpty(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{email: "farmer@example.com", ok: true})
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1")).Once()

	receipt, err := store.Checkout(ctx, "sess-1", payment.Card{})

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPrecondition)

	repo.AssertExpectations(t)
}

func TestCheckout_PaymentFailureLeavesCartIntact(t *testing.T) {
	repo := new(mockCartRepository)
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
	store := NewCartStore(repo, producer, stubIdentities{email: "farmer@example.com", ok: true}, failingProcessor{}, logger)
	ctx := context.Background()

	repo.On("Load", ctx, "sess-1").Return([]domain.CartLine{{Product: farmTools(), Quantity: 1}}, nil).Once()

	receipt, err := store.Checkout(ctx, "sess-1", payment.Card{})

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Equal(t, 1, store.Count(ctx, "sess-1"))

	repo.AssertExpectations(t)
}

// --- Session isolation ---

func TestCarts_IsolatedPerSession(t *testing.T) {
	repo := new(mockCartRepository)
	store := newTestStore(repo, stubIdentities{})
	ctx := context.Background()

	repo.On("Load", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.NotFound("cart", "x")).Twice()
	repo.On("Save", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("[]domain.CartLine")).Return(nil)

	_, err := store.AddItem(ctx, "sess-1", farmTools())
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count(ctx, "sess-1"))
	assert.Equal(t, 0, store.Count(ctx, "sess-2"))

	repo.AssertExpectations(t)
}
