package token

import (
	"context"
	"errors"
	"testing"

	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/store"
)

// ledgerStore fakes the ledger slice of the data store. The embedded
// interface panics if anything else is called.
type ledgerStore struct {
	store.DataStore
	balances map[string]int
	history  map[string][]models.TokenEntry
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{
		balances: map[string]int{},
		history:  map[string][]models.TokenEntry{},
	}
}

func (l *ledgerStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	bal, ok := l.balances[username]
	if !ok {
		return nil, nil
	}
	return &models.User{Username: username, Tokens: bal}, nil
}

func (l *ledgerStore) TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error) {
	if _, ok := l.balances[username]; !ok {
		return nil, store.ErrNotFound
	}
	return l.history[username], nil
}

func (l *ledgerStore) DebitTokens(ctx context.Context, username string, amount int, purpose, jobID string) (int, error) {
	bal, ok := l.balances[username]
	if !ok {
		return 0, store.ErrNotFound
	}
	if bal < amount {
		return 0, store.ErrInsufficientTokens
	}
	bal -= amount
	l.balances[username] = bal
	l.history[username] = append(l.history[username], models.TokenEntry{
		Type: models.EntryDeduct, Amount: amount, Purpose: purpose, JobID: jobID, Balance: bal,
	})
	return bal, nil
}

func (l *ledgerStore) CreditTokens(ctx context.Context, username string, amount int, purpose string) (int, error) {
	bal, ok := l.balances[username]
	if !ok {
		return 0, store.ErrNotFound
	}
	bal += amount
	l.balances[username] = bal
	l.history[username] = append(l.history[username], models.TokenEntry{
		Type: models.EntryAdd, Amount: amount, Purpose: purpose, Balance: bal,
	})
	return bal, nil
}

func TestBalance(t *testing.T) {
	ls := newLedgerStore()
	ls.balances["ada"] = 7
	svc := NewService(ls)

	balance, err := svc.Balance(context.Background(), "ada")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 7 {
		t.Fatalf("balance = %d, want 7", balance)
	}

	if _, err := svc.Balance(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPurchaseKnownPackage(t *testing.T) {
	ls := newLedgerStore()
	ls.balances["ada"] = 2
	svc := NewService(ls)

	pkg, balance, ok, err := svc.Purchase(context.Background(), "ada", "standard")
	if err != nil || !ok {
		t.Fatalf("Purchase: ok=%v err=%v", ok, err)
	}
	if pkg.Tokens != Packages["standard"].Tokens {
		t.Fatalf("pkg tokens = %d, want %d", pkg.Tokens, Packages["standard"].Tokens)
	}
	if balance != 2+pkg.Tokens {
		t.Fatalf("balance = %d, want %d", balance, 2+pkg.Tokens)
	}

	entries := ls.history["ada"]
	if len(entries) != 1 || entries[0].Type != models.EntryAdd {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestPurchaseUnknownPackage(t *testing.T) {
	ls := newLedgerStore()
	ls.balances["ada"] = 2
	svc := NewService(ls)

	_, _, ok, _ := svc.Purchase(context.Background(), "ada", "mega")
	if ok {
		t.Fatal("unknown package accepted")
	}
	if len(ls.history["ada"]) != 0 {
		t.Fatal("unknown package credited tokens")
	}
}

func TestDebitPropagatesInsufficient(t *testing.T) {
	ls := newLedgerStore()
	ls.balances["ada"] = 1
	svc := NewService(ls)

	_, err := svc.Debit(context.Background(), "ada", 5, "too much", "")
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
}

func TestHistory(t *testing.T) {
	ls := newLedgerStore()
	ls.balances["ada"] = 5
	svc := NewService(ls)

	if _, err := svc.Debit(context.Background(), "ada", 1, "Applied for job: X (ID: J1)", "J1"); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	balance, history, err := svc.History(context.Background(), "ada")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if balance != 4 || len(history) != 1 || history[0].JobID != "J1" {
		t.Fatalf("unexpected history: balance=%d %+v", balance, history)
	}
}
