package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType categorizes a balance-affecting event.
type TransactionType string

// Transaction type constants.
const (
	TxReserveMargin TransactionType = "RESERVE_MARGIN" // lock funds for an order
	TxReturnMargin  TransactionType = "RETURN_MARGIN"  // release locked funds
	TxFeeCreate     TransactionType = "FEE_CREATE"
	TxFeeFill       TransactionType = "FEE_FILL"
	TxFeeClose      TransactionType = "FEE_CLOSE"
	TxFeeCancel     TransactionType = "FEE_CANCEL"
	TxFeeOvernight  TransactionType = "FEE_OVERNIGHT"
	TxFillBuy       TransactionType = "FILL_BUY"  // quote -> base conversion
	TxFillSell      TransactionType = "FILL_SELL" // base -> quote conversion
	TxClosePnL      TransactionType = "CLOSE_PNL" // realized P&L
	TxSpotExchange  TransactionType = "SPOT_EXCHANGE"
	TxAdjustment    TransactionType = "ADJUSTMENT" // manual correction
)

// Transaction is an immutable record of one movement affecting an account
// balance. Every balance change in the system goes through a Transaction;
// nothing mutates a balance directly. This is the audit-trail contract
// that balance reconciliation depends on.
type Transaction struct {
	ID                uuid.UUID
	AccountID         uuid.UUID
	BacktestRunID     uuid.UUID
	Timestamp         time.Time
	Description       string
	AvailableChange   decimal.Decimal // signed delta to available balance
	UnavailableChange decimal.Decimal // signed delta to unavailable balance
	Type              TransactionType
	OrderID           *uuid.UUID // triggering order, when applicable
}

// NewTransaction creates a validated Transaction.
func NewTransaction(accountID, runID uuid.UUID, ts time.Time, description string, availableChange, unavailableChange decimal.Decimal, txType TransactionType, orderID *uuid.UUID) (*Transaction, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("transaction description cannot be empty")
	}
	return &Transaction{
		ID:                uuid.New(),
		AccountID:         accountID,
		BacktestRunID:     runID,
		Timestamp:         ts,
		Description:       description,
		AvailableChange:   availableChange,
		UnavailableChange: unavailableChange,
		Type:              txType,
		OrderID:           orderID,
	}, nil
}

// TotalChange is the net movement across both balance components.
func (t *Transaction) TotalChange() decimal.Decimal {
	return t.AvailableChange.Add(t.UnavailableChange)
}
