// Package payment implements the simulated payment collaborator. The
// simulator accepts any card and always succeeds; the cart core only needs
// the resulting "checkout completed" signal.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Card holds the card details submitted at checkout. They are never stored.
type Card struct {
	Number string
	Expiry string
	CVC    string
}

// Receipt is the record of a completed charge.
type Receipt struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Processor charges a card for the given amount in cents.
type Processor interface {
	Charge(ctx context.Context, amount int64, card Card) (*Receipt, error)
}

// Simulator is a Processor that unconditionally succeeds.
type Simulator struct{}

// NewSimulator creates a new simulated payment processor.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Charge returns a successful receipt for any card and amount.
func (s *Simulator) Charge(_ context.Context, amount int64, _ Card) (*Receipt, error) {
	return &Receipt{
		ID:          uuid.New().String(),
		Amount:      amount,
		Currency:    "USD",
		ProcessedAt: time.Now().UTC(),
	}, nil
}
