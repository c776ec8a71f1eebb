package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"dummyshop/storefront/internal/audit"
	"dummyshop/storefront/internal/domain"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCart        = errors.New("user has no cart")
	ErrItemNotInCart    = errors.New("product not in cart")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

type Remote interface {
	CartsByUser(ctx context.Context, userID int) ([]domain.Cart, error)
	UpdateCart(ctx context.Context, cartID int, lines []domain.CartLine) (domain.Cart, error)
}

type Session interface {
	User() (domain.User, bool)
}

type Recorder interface {
	Record(e audit.Event) error
}

type Service struct {
	remote  Remote
	session Session
	audit   Recorder
	log     *zap.Logger
}

func NewService(remote Remote, session Session, rec Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{remote: remote, session: session, audit: rec, log: log}
}

// Current returns the signed-in user's first cart.
func (s *Service) Current(ctx context.Context) (domain.Cart, error) {
	u, ok := s.session.User()
	if !ok {
		return domain.Cart{}, ErrNotAuthenticated
	}
	carts, err := s.remote.CartsByUser(ctx, u.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if len(carts) == 0 {
		return domain.Cart{}, ErrEmptyCart
	}
	return carts[0], nil
}

// SetQuantity merges one line into cartID. A quantity of zero is passed
// through; the remote decides what that means.
func (s *Service) SetQuantity(ctx context.Context, cartID, productID, qty int) (domain.Cart, error) {
	u, ok := s.session.User()
	if !ok {
		return domain.Cart{}, ErrNotAuthenticated
	}
	if qty < 0 {
		return domain.Cart{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if cartID <= 0 || productID <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: cart %d product %d", ErrInvalidQuantity, cartID, productID)
	}

	c, err := s.remote.UpdateCart(ctx, cartID, []domain.CartLine{{ID: productID, Quantity: qty}})
	e := audit.Event{
		Actor:  u.Username,
		Action: audit.ActionCartUpdate,
		Target: "cart:" + strconv.Itoa(cartID),
		Detail: fmt.Sprintf("product=%d quantity=%d", productID, qty),
	}
	if err != nil {
		e.Outcome = audit.OutcomeFailed
		s.record(ctx, e)
		return domain.Cart{}, fmt.Errorf("update cart %d: %w", cartID, err)
	}
	e.Outcome = audit.OutcomeSuccess
	s.record(ctx, e)
	return c, nil
}

func (s *Service) Increment(ctx context.Context, productID int) (domain.Cart, error) {
	return s.adjust(ctx, productID, 1)
}

// Decrement never goes below zero.
func (s *Service) Decrement(ctx context.Context, productID int) (domain.Cart, error) {
	return s.adjust(ctx, productID, -1)
}

func (s *Service) adjust(ctx context.Context, productID, delta int) (domain.Cart, error) {
	c, err := s.Current(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	item, ok := c.Item(productID)
	if !ok {
		return domain.Cart{}, fmt.Errorf("%w: product %d", ErrItemNotInCart, productID)
	}
	return s.SetQuantity(ctx, c.ID, productID, max(item.Quantity+delta, 0))
}

func (s *Service) record(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(e.For(ctx)); err != nil {
		s.log.Warn("audit record failed", zap.String("action", e.Action), zap.Error(err))
	}
}
