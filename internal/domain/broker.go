package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Broker represents a broker or exchange. Immutable reference entity.
type Broker struct {
	ID   uuid.UUID
	Name string
	Code string // short unique code, e.g. "BINANCE"
	Land string // country/jurisdiction, e.g. "US", "GLOBAL"
}

// NewBroker creates a validated Broker. An empty land defaults to "GLOBAL".
func NewBroker(name, code, land string) (*Broker, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("broker name cannot be empty")
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("broker code cannot be empty")
	}
	if strings.TrimSpace(land) == "" {
		land = "GLOBAL"
	}
	return &Broker{ID: uuid.New(), Name: name, Code: code, Land: land}, nil
}

// TraderAgent represents a trading agent or strategy instance.
type TraderAgent struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// NewTraderAgent creates a validated TraderAgent.
func NewTraderAgent(name, description string) (*TraderAgent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}
	return &TraderAgent{ID: uuid.New(), Name: name, Description: description}, nil
}

// TaxRegime holds tax configuration for an account. Rates are fractions
// in [0, 1].
type TaxRegime struct {
	ID                 uuid.UUID
	Name               string
	IncomeTaxRate      decimal.Decimal
	WithholdingTaxRate decimal.Decimal
}

// NewTaxRegime creates a validated TaxRegime.
func NewTaxRegime(name string, incomeTaxRate, withholdingTaxRate decimal.Decimal) (*TaxRegime, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("tax regime name cannot be empty")
	}
	one := decimal.NewFromInt(1)
	if incomeTaxRate.IsNegative() || incomeTaxRate.GreaterThan(one) {
		return nil, fmt.Errorf("income tax rate must be between 0 and 1, got %s", incomeTaxRate)
	}
	if withholdingTaxRate.IsNegative() || withholdingTaxRate.GreaterThan(one) {
		return nil, fmt.Errorf("withholding tax rate must be between 0 and 1, got %s", withholdingTaxRate)
	}
	return &TaxRegime{
		ID:                 uuid.New(),
		Name:               name,
		IncomeTaxRate:      incomeTaxRate,
		WithholdingTaxRate: withholdingTaxRate,
	}, nil
}
