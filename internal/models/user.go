package models

import "time"

// User is a marketplace account. Tokens is the current balance of the
// platform currency; every change to it has a matching TokenEntry.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Tokens       int       `json:"tokens"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Token ledger entry types.
const (
	EntryAdd    = "add"
	EntryDeduct = "deduct"
)

// TokenEntry is one append-only row of a user's token ledger. Balance
// is the balance after the entry was applied. JobID is set when the
// entry records a job application, so eligibility checks can compare
// against it directly instead of scanning the purpose text.
type TokenEntry struct {
	Type      string    `json:"type"` // add or deduct
	Amount    int       `json:"amount"`
	Purpose   string    `json:"purpose"`
	JobID     string    `json:"jobId,omitempty"`
	Timestamp time.Time `json:"date"`
	Balance   int       `json:"balance"`
}
