// Package broker provides market data and order placement interfaces and
// implementations.
package broker

import (
	"context"

	"tradecover/internal/models"
)

// Broker defines the interface for broker operations. The engine only
// needs quotes, chains, order placement, and balances; everything else
// lives with the orchestration layer.
type Broker interface {
	// Market Data
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)

	// Orders
	PlaceOrder(ctx context.Context, order *models.BrokerOrder) (*OrderResult, error)
	GetOrders(ctx context.Context) ([]models.BrokerOrder, error)

	// Account
	GetBalance(ctx context.Context) (*models.Balance, error)

	// Lifecycle
	Close() error
}

// OrderResult represents the result of an order placement.
type OrderResult struct {
	OrderID string
	Status  string
	AvgFill float64
}

// Order statuses reported by implementations.
const (
	OrderStatusFilled   = "FILLED"
	OrderStatusRejected = "REJECTED"
)
