package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType classifies a financial asset.
type AssetType string

// Asset type constants.
const (
	AssetCurrency  AssetType = "CURRENCY"
	AssetStock     AssetType = "STOCK"
	AssetCrypto    AssetType = "CRYPTO"
	AssetIndex     AssetType = "INDEX"
	AssetCommodity AssetType = "COMMODITY"
)

// Asset represents a tradeable financial asset (stock, crypto, currency).
// Immutable after construction; identity is the generated ID.
type Asset struct {
	ID        uuid.UUID
	Ticker    string
	Name      string
	AssetType AssetType
	MinUnit   decimal.Decimal // minimum tradeable unit
}

// NewAsset creates a validated Asset.
func NewAsset(ticker, name string, assetType AssetType, minUnit decimal.Decimal) (*Asset, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("asset ticker cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("asset name cannot be empty")
	}
	if minUnit.Sign() <= 0 {
		return nil, fmt.Errorf("asset min unit must be positive, got %s", minUnit)
	}
	return &Asset{
		ID:        uuid.New(),
		Ticker:    ticker,
		Name:      name,
		AssetType: assetType,
		MinUnit:   minUnit,
	}, nil
}
