package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/payment"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Identities is the signal the checkout gate needs from the auth
// collaborator: whether the session currently has an identified user.
type Identities interface {
	Identify(sessionID string) (string, bool)
}

// CartStore owns the line-item collections for all active sessions and is the
// sole mutation authority over them. The in-memory cart is the source of
// truth for the session; the repository mirrors it best-effort after every
// mutation, and a persistence failure never rolls a mutation back. Carts are
// hydrated from the repository on a session's first touch, before any read or
// mutation is served for it.
type CartStore struct {
	mu         sync.Mutex
	carts      map[string]*domain.Cart
	repo       repository.CartRepository
	producer   *event.Producer
	identities Identities
	payments   payment.Processor
	logger     *slog.Logger
}

// NewCartStore creates a new cart store.
func NewCartStore(
	repo repository.CartRepository,
	producer *event.Producer,
	identities Identities,
	payments payment.Processor,
	logger *slog.Logger,
) *CartStore {
	return &CartStore{
		carts:      make(map[string]*domain.Cart),
		repo:       repo,
		producer:   producer,
		identities: identities,
		payments:   payments,
		logger:     logger,
	}
}

// AddItem adds one unit of the product snapshot to the session's cart,
// merging into an existing line for the same product. The caller resolves the
// product through the catalog; the store trusts the snapshot it is given.
func (s *CartStore) AddItem(ctx context.Context, sessionID string, p domain.Product) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, apperrors.InvalidInput("session id is required")
	}
	if p.ID <= 0 {
		return domain.CartView{}, apperrors.InvalidInput("product id must be positive")
	}
	if p.Price < 0 {
		return domain.CartView{}, apperrors.InvalidInput("price must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(ctx, sessionID)
	cart.AddProduct(p)

	s.persist(ctx, cart, "add_item")
	s.publishUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", p.ID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return domain.ProjectCart(cart), nil
}

// RemoveItem deletes the line for the given product. Removing an absent
// product is a no-op, not an error.
func (s *CartStore) RemoveItem(ctx context.Context, sessionID string, productID int64) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(ctx, sessionID)
	if cart.RemoveLine(productID) {
		s.persist(ctx, cart, "remove_item")
		s.publishUpdated(ctx, cart)

		s.logger.InfoContext(ctx, "item removed from cart",
			slog.String("session_id", sessionID),
			slog.Int64("product_id", productID),
		)
	}

	return domain.ProjectCart(cart), nil
}

// AdjustQuantity changes a line's quantity by delta (clamped at zero; zero
// removes the line). Adjusting an absent product is a no-op.
func (s *CartStore) AdjustQuantity(ctx context.Context, sessionID string, productID int64, delta int) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(ctx, sessionID)
	if cart.AdjustQuantity(productID, delta) {
		s.persist(ctx, cart, "adjust_quantity")
		s.publishUpdated(ctx, cart)

		s.logger.InfoContext(ctx, "cart quantity adjusted",
			slog.String("session_id", sessionID),
			slog.Int64("product_id", productID),
			slog.Int("delta", delta),
		)
	}

	return domain.ProjectCart(cart), nil
}

// Clear empties the session's cart.
func (s *CartStore) Clear(ctx context.Context, sessionID string) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.clearLocked(ctx, sessionID)
	return domain.ProjectCart(cart), nil
}

// View returns the renderer-facing projection of the session's cart.
func (s *CartStore) View(ctx context.Context, sessionID string) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.ProjectCart(s.cart(ctx, sessionID)), nil
}

// Count returns the total number of units in the session's cart.
func (s *CartStore) Count(ctx context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart(ctx, sessionID).ItemCount()
}

// Total returns the session cart's total in cents.
func (s *CartStore) Total(ctx context.Context, sessionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart(ctx, sessionID).TotalAmount()
}

// Checkout runs the checkout gate, charges the simulated payment processor,
// and clears the cart on success. Both gate failures are user-visible
// rejections with no mutation: an unidentified session and an empty cart.
func (s *CartStore) Checkout(ctx context.Context, sessionID string, card payment.Card) (*payment.Receipt, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	email, identified := s.identities.Identify(sessionID)
	if !identified {
		checkoutsTotal.WithLabelValues("rejected_unidentified").Inc()
		return nil, apperrors.Unauthorized("please login to checkout")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(ctx, sessionID)
	if cart.ItemCount() == 0 {
		checkoutsTotal.WithLabelValues("rejected_empty").Inc()
		return nil, apperrors.Precondition("your cart is empty")
	}

	total := cart.TotalAmount()
	itemCount := cart.ItemCount()

	receipt, err := s.payments.Charge(ctx, total, card)
	if err != nil {
		checkoutsTotal.WithLabelValues("payment_failed").Inc()
		return nil, apperrors.PaymentFailed(fmt.Sprintf("charge of %d failed", total))
	}

	s.clearLocked(ctx, sessionID)

	if err := s.producer.PublishCheckoutCompleted(ctx, event.CheckoutCompletedData{
		SessionID:   sessionID,
		Email:       email,
		ReceiptID:   receipt.ID,
		ItemCount:   itemCount,
		TotalAmount: total,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	checkoutsTotal.WithLabelValues("success").Inc()

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("session_id", sessionID),
		slog.String("receipt_id", receipt.ID),
		slog.Int64("total", total),
	)

	return receipt, nil
}

// cart returns the in-memory cart for a session, hydrating it from the
// repository on first touch. Any load failure degrades to an empty cart; the
// cart stays usable in-memory even when durability is lost. Callers must hold
// s.mu.
func (s *CartStore) cart(ctx context.Context, sessionID string) *domain.Cart {
	if cart, ok := s.carts[sessionID]; ok {
		return cart
	}

	cart := domain.NewCart(sessionID)

	lines, err := s.repo.Load(ctx, sessionID)
	switch {
	case err == nil:
		cart.Lines = lines
	case errors.Is(err, apperrors.ErrNotFound):
		// First visit for this session.
	default:
		s.logger.WarnContext(ctx, "cart hydration failed, starting empty",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.carts[sessionID] = cart
	return cart
}

// clearLocked empties the session's cart and drops the persisted record.
// Callers must hold s.mu.
func (s *CartStore) clearLocked(ctx context.Context, sessionID string) *domain.Cart {
	cart := s.cart(ctx, sessionID)
	cart.Clear()

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		cartPersistFailures.WithLabelValues("clear").Inc()
		s.logger.ErrorContext(ctx, "failed to delete persisted cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	cartOperationsTotal.WithLabelValues("clear").Inc()

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
	)

	return cart
}

// persist mirrors the in-memory cart to the repository. Failures are logged
// and counted but never surfaced: durable storage is best-effort and the
// in-memory mutation stands.
func (s *CartStore) persist(ctx context.Context, cart *domain.Cart, operation string) {
	cartOperationsTotal.WithLabelValues(operation).Inc()

	if err := s.repo.Save(ctx, cart.SessionID, cart.Lines); err != nil {
		cartPersistFailures.WithLabelValues(operation).Inc()
		s.logger.ErrorContext(ctx, "failed to persist cart, in-memory state unaffected",
			slog.String("session_id", cart.SessionID),
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}
}

// publishUpdated emits a cart.updated event best-effort.
func (s *CartStore) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}
}
