package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// Builders for the transaction shapes the engine emits. Each returns an
// immutable Transaction with the signed deltas already worked out, so
// call sites only state intent and amount.

// InitialDeposit credits the account's opening balance at run start.
func InitialDeposit(accountID, runID uuid.UUID, ts time.Time, amount decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(accountID, runID, ts,
		"initial deposit", amount, decimal.Zero, domain.TxAdjustment, nil)
}

// ReserveMargin moves amount from available to unavailable for an order.
func ReserveMargin(order *domain.TradingOrder, ts time.Time, amount decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(order.AccountID, order.BacktestRunID, ts,
		fmt.Sprintf("reserve margin for order %s", order.ID),
		amount.Neg(), amount, domain.TxReserveMargin, &order.ID)
}

// ReturnMargin moves amount from unavailable back to available.
func ReturnMargin(order *domain.TradingOrder, ts time.Time, amount decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(order.AccountID, order.BacktestRunID, ts,
		fmt.Sprintf("return margin for order %s", order.ID),
		amount, amount.Neg(), domain.TxReturnMargin, &order.ID)
}

// Fee debits a fee from the available balance. The transaction type must
// be one of the fee types matching the lifecycle stage.
func Fee(order *domain.TradingOrder, ts time.Time, amount decimal.Decimal, txType domain.TransactionType) (*domain.Transaction, error) {
	switch txType {
	case domain.TxFeeCreate, domain.TxFeeFill, domain.TxFeeClose, domain.TxFeeCancel, domain.TxFeeOvernight:
	default:
		return nil, fmt.Errorf("transaction type %s is not a fee type", txType)
	}
	return domain.NewTransaction(order.AccountID, order.BacktestRunID, ts,
		fmt.Sprintf("%s for order %s", txType, order.ID),
		amount.Neg(), decimal.Zero, txType, &order.ID)
}

// ClosePnL settles a closed position's gross P&L against the available
// balance. The amount is signed: losses debit, gains credit.
func ClosePnL(order *domain.TradingOrder, ts time.Time, pnl decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(order.AccountID, order.BacktestRunID, ts,
		fmt.Sprintf("close P&L for order %s", order.ID),
		pnl, decimal.Zero, domain.TxClosePnL, &order.ID)
}

// SpotExchange records the quote-side movement of a spot fill. The amount
// is signed from the account's perspective: buys debit, sells credit.
func SpotExchange(order *domain.SpotOrder, ts time.Time, amount decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(order.AccountID, order.BacktestRunID, ts,
		fmt.Sprintf("spot exchange for order %s", order.ID),
		amount, decimal.Zero, domain.TxSpotExchange, &order.ID)
}

// Adjustment records a manual correction with an explicit reason.
func Adjustment(accountID, runID uuid.UUID, ts time.Time, reason string, availableChange, unavailableChange decimal.Decimal) (*domain.Transaction, error) {
	return domain.NewTransaction(accountID, runID, ts,
		reason, availableChange, unavailableChange, domain.TxAdjustment, nil)
}
