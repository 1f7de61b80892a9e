package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account links an agent, a base asset, a broker, and a tax regime with
// an initial balance. One account may hold multiple open orders.
type Account struct {
	ID             uuid.UUID
	Agent          *TraderAgent
	BaseAsset      *Asset
	Broker         *Broker
	TaxRegime      *TaxRegime
	InitialBalance decimal.Decimal
}

// NewAccount creates a validated Account.
func NewAccount(agent *TraderAgent, baseAsset *Asset, broker *Broker, taxRegime *TaxRegime, initialBalance decimal.Decimal) (*Account, error) {
	if agent == nil {
		return nil, fmt.Errorf("account requires an agent")
	}
	if baseAsset == nil {
		return nil, fmt.Errorf("account requires a base asset")
	}
	if broker == nil {
		return nil, fmt.Errorf("account requires a broker")
	}
	if taxRegime == nil {
		return nil, fmt.Errorf("account requires a tax regime")
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance cannot be negative, got %s", initialBalance)
	}
	return &Account{
		ID:             uuid.New(),
		Agent:          agent,
		BaseAsset:      baseAsset,
		Broker:         broker,
		TaxRegime:      taxRegime,
		InitialBalance: initialBalance,
	}, nil
}
