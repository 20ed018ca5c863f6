// Package token exposes the ledger operations: balance, history and
// the purchase stub crediting package bundles.
package token

import (
	"context"

	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/store"
)

// Package is a purchasable token bundle. Prices are display-only; there
// is no payment gateway behind the purchase flow.
type Package struct {
	Tokens int `json:"tokens"`
	Price  int `json:"price"`
}

// Packages are the offered bundles, keyed by name.
var Packages = map[string]Package{
	"basic":    {Tokens: 10, Price: 5},
	"standard": {Tokens: 25, Price: 10},
	"premium":  {Tokens: 50, Price: 18},
	"pro":      {Tokens: 100, Price: 30},
}

// Service wraps a DataStore's ledger operations.
type Service struct {
	store store.DataStore
}

// NewService creates a Service.
func NewService(ds store.DataStore) *Service {
	return &Service{store: ds}
}

// Balance returns the user's current token balance.
func (s *Service) Balance(ctx context.Context, username string) (int, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, store.ErrNotFound
	}
	return user.Tokens, nil
}

// History returns the user's ledger entries alongside the current
// balance.
func (s *Service) History(ctx context.Context, username string) (int, []models.TokenEntry, error) {
	balance, err := s.Balance(ctx, username)
	if err != nil {
		return 0, nil, err
	}
	history, err := s.store.TokenHistory(ctx, username)
	if err != nil {
		return 0, nil, err
	}
	return balance, history, nil
}

// Debit removes tokens and records the ledger entry atomically. jobID
// tags application entries so eligibility checks find them by field,
// not by scanning the purpose text.
func (s *Service) Debit(ctx context.Context, username string, amount int, purpose, jobID string) (int, error) {
	balance, err := s.store.DebitTokens(ctx, username, amount, purpose, jobID)
	if err != nil {
		return 0, err
	}
	metrics.TokensSpent.Add(float64(amount))
	return balance, nil
}

// Credit adds tokens and records the ledger entry atomically.
func (s *Service) Credit(ctx context.Context, username string, amount int, purpose string) (int, error) {
	return s.store.CreditTokens(ctx, username, amount, purpose)
}

// Purchase credits the named package's tokens. Returns the package and
// the new balance; an unknown package name yields (Package{}, 0, false, nil).
func (s *Service) Purchase(ctx context.Context, username, packageName string) (Package, int, bool, error) {
	pkg, ok := Packages[packageName]
	if !ok {
		return Package{}, 0, false, nil
	}
	balance, err := s.Credit(ctx, username, pkg.Tokens, "Purchased "+packageName+" package")
	if err != nil {
		return Package{}, 0, true, err
	}
	return pkg, balance, true, nil
}
