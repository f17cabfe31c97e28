// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"tradecover/internal/errors"
	"tradecover/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Positions table: one row per open structure, flat leg columns
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		strategy TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		opened_at DATETIME NOT NULL,
		call_strike REAL DEFAULT 0,
		call_premium REAL DEFAULT 0,
		call_expiry TEXT DEFAULT '',
		put_strike REAL DEFAULT 0,
		put_premium REAL DEFAULT 0,
		put_expiry TEXT DEFAULT '',
		short_strike REAL DEFAULT 0,
		long_strike REAL DEFAULT 0,
		net_credit REAL DEFAULT 0,
		max_risk REAL DEFAULT 0,
		expiry_date TEXT DEFAULT '',
		short_put_strike REAL DEFAULT 0,
		long_put_strike REAL DEFAULT 0,
		short_call_strike REAL DEFAULT 0,
		long_call_strike REAL DEFAULT 0,
		total_credit REAL DEFAULT 0,
		near_strike REAL DEFAULT 0,
		far_strike REAL DEFAULT 0,
		near_premium REAL DEFAULT 0,
		far_premium REAL DEFAULT 0,
		near_expiry TEXT DEFAULT '',
		far_expiry TEXT DEFAULT '',
		option_kind TEXT DEFAULT '',
		phase TEXT DEFAULT '',
		status TEXT DEFAULT 'OPEN',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		closed_at DATETIME
	);

	-- Trades table for executed and simulated trades
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		strategy TEXT,
		action TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		order_type TEXT NOT NULL,
		price REAL NOT NULL,
		pnl REAL,
		pnl_percent REAL,
		is_paper INTEGER DEFAULT 0,
		order_ids TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Adjustment decisions table
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		position_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		strategy TEXT,
		action TEXT NOT NULL,
		reason TEXT,
		price REAL NOT NULL,
		executed INTEGER DEFAULT 0,
		order_ids TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Watchlist table
	CREATE TABLE IF NOT EXISTS watchlist (
		symbol TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);
	CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);
	CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol);
	CREATE INDEX IF NOT EXISTS idx_decisions_position ON decisions(position_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePosition inserts or replaces a position record.
func (s *SQLiteStore) SavePosition(ctx context.Context, pos *models.Position) error {
	if pos == nil || pos.ID == "" {
		return errors.NewValidationError("id", "", "position missing id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions (
			id, symbol, strategy, quantity, entry_price, opened_at,
			call_strike, call_premium, call_expiry,
			put_strike, put_premium, put_expiry,
			short_strike, long_strike, net_credit, max_risk, expiry_date,
			short_put_strike, long_put_strike, short_call_strike, long_call_strike, total_credit,
			near_strike, far_strike, near_premium, far_premium, near_expiry, far_expiry, option_kind,
			phase, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'OPEN')`,
		pos.ID, pos.Symbol, pos.Strategy, pos.Quantity, pos.EntryPrice, pos.OpenedAt,
		pos.CallStrike, pos.CallPremium, pos.CallExpiry,
		pos.PutStrike, pos.PutPremium, pos.PutExpiry,
		pos.ShortStrike, pos.LongStrike, pos.NetCredit, pos.MaxRisk, pos.ExpiryDate,
		pos.ShortPutStrike, pos.LongPutStrike, pos.ShortCallStrike, pos.LongCallStrike, pos.TotalCredit,
		pos.NearStrike, pos.FarStrike, pos.NearPremium, pos.FarPremium, pos.NearExpiry, pos.FarExpiry, string(pos.OptionKind),
		string(pos.Phase),
	)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

const positionColumns = `id, symbol, strategy, quantity, entry_price, opened_at,
	call_strike, call_premium, call_expiry,
	put_strike, put_premium, put_expiry,
	short_strike, long_strike, net_credit, max_risk, expiry_date,
	short_put_strike, long_put_strike, short_call_strike, long_call_strike, total_credit,
	near_strike, far_strike, near_premium, far_premium, near_expiry, far_expiry, option_kind, phase`

func scanPosition(row interface{ Scan(...any) error }) (*models.Position, error) {
	var pos models.Position
	var kind, phase string
	err := row.Scan(
		&pos.ID, &pos.Symbol, &pos.Strategy, &pos.Quantity, &pos.EntryPrice, &pos.OpenedAt,
		&pos.CallStrike, &pos.CallPremium, &pos.CallExpiry,
		&pos.PutStrike, &pos.PutPremium, &pos.PutExpiry,
		&pos.ShortStrike, &pos.LongStrike, &pos.NetCredit, &pos.MaxRisk, &pos.ExpiryDate,
		&pos.ShortPutStrike, &pos.LongPutStrike, &pos.ShortCallStrike, &pos.LongCallStrike, &pos.TotalCredit,
		&pos.NearStrike, &pos.FarStrike, &pos.NearPremium, &pos.FarPremium, &pos.NearExpiry, &pos.FarExpiry, &kind, &phase,
	)
	if err != nil {
		return nil, err
	}
	pos.OptionKind = models.OptionKind(kind)
	pos.Phase = models.WheelPhase(phase)
	return &pos, nil
}

// GetPosition returns the position with the given id regardless of status.
func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+positionColumns+" FROM positions WHERE id = ?", id)
	pos, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrPositionNotFound, "%s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// GetOpenPositions returns open positions, optionally filtered by symbol.
func (s *SQLiteStore) GetOpenPositions(ctx context.Context, symbol string) ([]models.Position, error) {
	query := "SELECT " + positionColumns + " FROM positions WHERE status = 'OPEN'"
	var args []any
	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY opened_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}
	return positions, rows.Err()
}

// UpdateWheelPhase flips the wheel phase flag on a position.
func (s *SQLiteStore) UpdateWheelPhase(ctx context.Context, id string, phase models.WheelPhase) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE positions SET phase = ? WHERE id = ?", string(phase), id)
	if err != nil {
		return fmt.Errorf("failed to update phase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrPositionNotFound, "%s", id)
	}
	return nil
}

// ClosePosition marks a position closed.
func (s *SQLiteStore) ClosePosition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE positions SET status = 'CLOSED', closed_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'OPEN'", id)
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrPositionNotFound, "%s", id)
	}
	return nil
}

// LogTrade records a completed or simulated trade.
func (s *SQLiteStore) LogTrade(ctx context.Context, trade *models.Trade) error {
	if trade == nil || trade.ID == "" {
		return errors.NewValidationError("id", "", "trade missing id")
	}
	orderIDs, err := json.Marshal(trade.OrderIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal order ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trades (id, timestamp, symbol, strategy, action, quantity, order_type, price, pnl, pnl_percent, is_paper, order_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.Timestamp, trade.Symbol, trade.Strategy, string(trade.Action),
		trade.Quantity, string(trade.OrderType), trade.Price, trade.PnL, trade.PnLPercent,
		boolToInt(trade.IsPaper), string(orderIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to log trade: %w", err)
	}
	return nil
}

// GetTrades returns trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	var conditions []string
	var args []any

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		conditions = append(conditions, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if !filter.StartDate.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.IsPaper != nil {
		conditions = append(conditions, "is_paper = ?")
		args = append(args, boolToInt(*filter.IsPaper))
	}

	query := "SELECT id, timestamp, symbol, strategy, action, quantity, order_type, price, pnl, pnl_percent, is_paper, order_ids FROM trades"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var action, orderType, orderIDs string
		var isPaper int
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &t.Strategy, &action,
			&t.Quantity, &orderType, &t.Price, &t.PnL, &t.PnLPercent, &isPaper, &orderIDs); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Action = models.Action(action)
		t.OrderType = models.OrderType(orderType)
		t.IsPaper = isPaper != 0
		if orderIDs != "" {
			if err := json.Unmarshal([]byte(orderIDs), &t.OrderIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal order ids: %w", err)
			}
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveDecision records an adjustment decision.
func (s *SQLiteStore) SaveDecision(ctx context.Context, decision *Decision) error {
	if decision == nil || decision.ID == "" {
		return errors.NewValidationError("id", "", "decision missing id")
	}
	orderIDs, err := json.Marshal(decision.OrderIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal order ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, timestamp, position_id, symbol, strategy, action, reason, price, executed, order_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.ID, decision.Timestamp, decision.PositionID, decision.Symbol, decision.Strategy,
		string(decision.Action), decision.Reason, decision.Price, boolToInt(decision.Executed), string(orderIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// GetDecisions returns adjustment decisions matching the filter, newest
// first.
func (s *SQLiteStore) GetDecisions(ctx context.Context, filter DecisionFilter) ([]Decision, error) {
	var conditions []string
	var args []any

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.PositionID != "" {
		conditions = append(conditions, "position_id = ?")
		args = append(args, filter.PositionID)
	}
	if filter.Executed != nil {
		conditions = append(conditions, "executed = ?")
		args = append(args, boolToInt(*filter.Executed))
	}

	query := "SELECT id, timestamp, position_id, symbol, strategy, action, reason, price, executed, order_ids FROM decisions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var action, orderIDs string
		var executed int
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.PositionID, &d.Symbol, &d.Strategy,
			&action, &d.Reason, &d.Price, &executed, &orderIDs); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Action = models.Action(action)
		d.Executed = executed != 0
		if orderIDs != "" {
			if err := json.Unmarshal([]byte(orderIDs), &d.OrderIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal order ids: %w", err)
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// AddToWatchlist adds a symbol to the watchlist.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	if symbol == "" {
		return errors.NewValidationError("symbol", "", "empty symbol")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO watchlist (symbol) VALUES (?)", symbol)
	if err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM watchlist WHERE symbol = ?", symbol)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return nil
}

// GetWatchlist returns all watched symbols in insertion order.
func (s *SQLiteStore) GetWatchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol FROM watchlist ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
