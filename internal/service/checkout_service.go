package service

import (
	"context"
	"errors"
	"sort"

	"github.com/iliyamo/conference-commerce/internal/gateway"
	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
	"github.com/iliyamo/conference-commerce/internal/utils"
)

// ErrAmountRequired is returned when a wallet top-up checkout omits
// the amount. Order checkouts never need one: the order total is the
// amount authority.
var ErrAmountRequired = errors.New("amount required for wallet top-up")

// CheckoutService builds signed hosted-checkout payloads across the
// configured payment providers.
type CheckoutService struct {
	gateways map[string]gateway.Gateway
	orders   OrderStore
}

// NewCheckoutService returns a CheckoutService over the given
// provider registry.
func NewCheckoutService(gateways map[string]gateway.Gateway, orders OrderStore) *CheckoutService {
	return &CheckoutService{gateways: gateways, orders: orders}
}

// Providers lists the configured provider names, sorted.
func (s *CheckoutService) Providers() []string {
	names := make([]string, 0, len(s.gateways))
	for name := range s.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gateway returns the named provider or ErrUnknownProvider.
func (s *CheckoutService) Gateway(name string) (gateway.Gateway, error) {
	g, ok := s.gateways[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return g, nil
}

// BuildCheckout produces the hosted-checkout payload for an order
// payment or a wallet top-up. For orders the stored total is the
// amount; a client-sent amount is only cross-checked and a mismatch
// fails the request before anything reaches the gateway. Wallet
// top-ups carry a fresh reference since no order row exists.
func (s *CheckoutService) BuildCheckout(ctx context.Context, userID uint64, provider string, in model.CheckoutInput) (*gateway.Checkout, error) {
	g, err := s.Gateway(provider)
	if err != nil {
		return nil, err
	}

	req := gateway.CheckoutRequest{
		Currency:   in.Currency,
		Purpose:    in.Purpose,
		CustomerID: userID,
	}
	switch in.Purpose {
	case model.PurposeOrder:
		order, err := s.orders.ByID(ctx, in.OrderID)
		if err != nil {
			return nil, err
		}
		if order.UserID != userID {
			return nil, repository.ErrNotFound
		}
		payable := false
		for _, st := range model.PayableStatuses() {
			if order.Status == st {
				payable = true
				break
			}
		}
		if !payable {
			return nil, ErrNotPayable
		}
		if in.AmountCents != 0 && in.AmountCents != order.TotalCents {
			return nil, ErrAmountMismatch
		}
		req.Reference = order.PublicCode
		req.AmountCents = order.TotalCents
	case model.PurposeWallet:
		if in.AmountCents <= 0 {
			return nil, ErrAmountRequired
		}
		req.Reference = utils.NewTopUpRef()
		req.AmountCents = in.AmountCents
	default:
		return nil, ErrAmountRequired
	}

	return g.BuildCheckout(req)
}
