// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"tradecover/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Positions
	SavePosition(ctx context.Context, pos *models.Position) error
	GetPosition(ctx context.Context, id string) (*models.Position, error)
	GetOpenPositions(ctx context.Context, symbol string) ([]models.Position, error)
	UpdateWheelPhase(ctx context.Context, id string, phase models.WheelPhase) error
	ClosePosition(ctx context.Context, id string) error

	// Trades
	LogTrade(ctx context.Context, trade *models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	// Adjustment decisions
	SaveDecision(ctx context.Context, decision *Decision) error
	GetDecisions(ctx context.Context, filter DecisionFilter) ([]Decision, error)

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	GetWatchlist(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
}

// Decision records one adjustment evaluation against an open position.
type Decision struct {
	ID         string
	Timestamp  time.Time
	PositionID string
	Symbol     string
	Strategy   string
	Action     models.Action
	Reason     string
	Price      float64
	Executed   bool
	OrderIDs   []string
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol    string
	Strategy  string
	StartDate time.Time
	EndDate   time.Time
	IsPaper   *bool
	Limit     int
}

// DecisionFilter represents filters for querying adjustment decisions.
type DecisionFilter struct {
	Symbol     string
	PositionID string
	Executed   *bool
	Limit      int
}
