package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so every repository
// method works inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteStore struct {
	db *sql.DB
	q  queryer
	tx *sql.Tx
}

// NewSQLiteStore opens (or creates) the ledger database. Transactions
// take the write lock at BEGIN so write transactions serialize whole.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, q: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			initial_equity TEXT NOT NULL,
			current_equity TEXT NOT NULL,
			total_pnl TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id),
			contract TEXT NOT NULL,
			month TEXT NOT NULL,
			trade_date DATETIME NOT NULL,
			strategy TEXT NOT NULL,
			action TEXT NOT NULL,
			direction TEXT NOT NULL,
			price TEXT NOT NULL,
			strike_price TEXT NOT NULL,
			premium TEXT NOT NULL,
			volume INTEGER NOT NULL,
			commission TEXT NOT NULL,
			clearing_fee TEXT NOT NULL,
			trade_pnl TEXT NOT NULL,
			previous_volume INTEGER NOT NULL,
			resulting_volume INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_account_created ON trades(account_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_key ON trades(account_id, contract, month, strategy, direction, created_at);`,
		`CREATE TABLE IF NOT EXISTS positions (
			account_id TEXT NOT NULL REFERENCES accounts(id),
			contract TEXT NOT NULL,
			month TEXT NOT NULL,
			strategy TEXT NOT NULL,
			direction TEXT NOT NULL,
			open_interest INTEGER NOT NULL,
			avg_price TEXT NOT NULL,
			strike_price TEXT NOT NULL,
			premium TEXT NOT NULL,
			last_mark TEXT NOT NULL,
			unrealized_pnl TEXT NOT NULL,
			commissions TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (account_id, contract, month, strategy, direction)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_contract_month ON positions(contract, month);`,
		`CREATE TABLE IF NOT EXISTS statements (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id),
			period_start DATETIME NOT NULL,
			period_end DATETIME NOT NULL,
			beginning_equity TEXT NOT NULL,
			deposits TEXT NOT NULL,
			withdrawals TEXT NOT NULL,
			realized_pnl TEXT NOT NULL,
			unrealized_pnl TEXT NOT NULL,
			commissions TEXT NOT NULL,
			ending_equity TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_statements_account_end ON statements(account_id, period_end);`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id),
			kind TEXT NOT NULL,
			amount TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_account_created ON transfers(account_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS marks (
			contract TEXT NOT NULL,
			month TEXT NOT NULL,
			price TEXT NOT NULL,
			mark_date DATETIME NOT NULL,
			PRIMARY KEY (contract, month)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithinTx runs fn against a transaction-scoped view of the store.
// Nested calls join the open transaction.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(domain.Repository) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Internal("begin transaction", err)
	}

	scoped := &SQLiteStore{db: s.db, q: tx, tx: tx}
	if err := fn(scoped); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.Internal("commit transaction", err)
	}
	return nil
}

// decimal columns are stored as TEXT to keep money exact.

func scanDecimal(raw string, dst *decimal.Decimal) error {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// AccountRepository implementation

func (s *SQLiteStore) CreateAccount(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, owner, initial_equity, current_equity, total_pnl, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query,
		a.ID, a.Owner, a.InitialEquity.String(), a.CurrentEquity.String(), a.TotalPnL.String(), a.CreatedAt)
	if err != nil {
		return domain.Internal("create account", err)
	}
	return nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, owner, initial_equity, current_equity, total_pnl, created_at FROM accounts WHERE id = ?`
	row := s.q.QueryRowContext(ctx, query, id)

	var a domain.Account
	var initial, current, pnl string
	err := row.Scan(&a.ID, &a.Owner, &initial, &current, &pnl, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("account", id)
	}
	if err != nil {
		return nil, domain.Internal("get account", err)
	}
	for _, c := range []struct {
		raw string
		dst *decimal.Decimal
	}{{initial, &a.InitialEquity}, {current, &a.CurrentEquity}, {pnl, &a.TotalPnL}} {
		if err := scanDecimal(c.raw, c.dst); err != nil {
			return nil, domain.Internal("decode account", err)
		}
	}
	return &a, nil
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, a *domain.Account) error {
	query := `UPDATE accounts SET current_equity = ?, total_pnl = ? WHERE id = ?`
	res, err := s.q.ExecContext(ctx, query, a.CurrentEquity.String(), a.TotalPnL.String(), a.ID)
	if err != nil {
		return domain.Internal("update account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Internal("update account", err)
	}
	if n == 0 {
		return domain.NotFound("account", a.ID)
	}
	return nil
}

// TradeRepository implementation

const tradeColumns = `id, account_id, contract, month, trade_date, strategy, action, direction,
	price, strike_price, premium, volume, commission, clearing_fee, trade_pnl,
	previous_volume, resulting_volume, created_at`

func (s *SQLiteStore) SaveTrade(ctx context.Context, t *domain.Trade) error {
	query := `INSERT INTO trades (` + tradeColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query,
		t.ID, t.AccountID, t.Contract, t.Month, t.TradeDate, t.Strategy, t.Action, t.Direction,
		t.Price.String(), t.StrikePrice.String(), t.Premium.String(), t.Volume,
		t.Commission.String(), t.ClearingFee.String(), t.TradePnL.String(),
		t.PreviousVolume, t.ResultingVolume, t.CreatedAt)
	if err != nil {
		return domain.Internal("save trade", err)
	}
	return nil
}

func (s *SQLiteStore) scanTrade(rows *sql.Rows) (*domain.Trade, error) {
	var t domain.Trade
	var price, strike, premium, commission, clearing, pnl string
	err := rows.Scan(&t.ID, &t.AccountID, &t.Contract, &t.Month, &t.TradeDate, &t.Strategy, &t.Action, &t.Direction,
		&price, &strike, &premium, &t.Volume, &commission, &clearing, &pnl,
		&t.PreviousVolume, &t.ResultingVolume, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{price, &t.Price}, {strike, &t.StrikePrice}, {premium, &t.Premium},
		{commission, &t.Commission}, {clearing, &t.ClearingFee}, {pnl, &t.TradePnL},
	} {
		if err := scanDecimal(c.raw, c.dst); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (s *SQLiteStore) queryTrades(ctx context.Context, query string, args ...any) ([]*domain.Trade, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal("query trades", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t, err := s.scanTrade(rows)
		if err != nil {
			return nil, domain.Internal("decode trade", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("query trades", err)
	}
	return trades, nil
}

func (s *SQLiteStore) ListTrades(ctx context.Context, accountID string, limit int) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE account_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	return s.queryTrades(ctx, query, accountID, limit)
}

func (s *SQLiteStore) ListTradesInWindow(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
			  WHERE account_id = ? AND created_at >= ? AND created_at < ?
			  ORDER BY created_at ASC, id ASC`
	return s.queryTrades(ctx, query, accountID, start, end)
}

func (s *SQLiteStore) ListTradesForKey(ctx context.Context, key domain.PositionKey, end time.Time) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
			  WHERE account_id = ? AND contract = ? AND month = ? AND strategy = ? AND direction = ? AND created_at < ?
			  ORDER BY created_at ASC, id ASC`
	return s.queryTrades(ctx, query, key.AccountID, key.Contract, key.Month, key.Strategy, key.Direction, end)
}

// PositionRepository implementation

const positionColumns = `account_id, contract, month, strategy, direction, open_interest,
	avg_price, strike_price, premium, last_mark, unrealized_pnl, commissions, updated_at`

func (s *SQLiteStore) scanPosition(scan func(...any) error) (*domain.Position, error) {
	var p domain.Position
	var avg, strike, premium, mark, unrealized, commissions string
	err := scan(&p.AccountID, &p.Contract, &p.Month, &p.Strategy, &p.Direction, &p.OpenInterest,
		&avg, &strike, &premium, &mark, &unrealized, &commissions, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{avg, &p.AvgPrice}, {strike, &p.StrikePrice}, {premium, &p.Premium},
		{mark, &p.LastMark}, {unrealized, &p.UnrealizedPnL}, {commissions, &p.Commissions},
	} {
		if err := scanDecimal(c.raw, c.dst); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (s *SQLiteStore) GetPosition(ctx context.Context, key domain.PositionKey) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
			  WHERE account_id = ? AND contract = ? AND month = ? AND strategy = ? AND direction = ?`
	row := s.q.QueryRowContext(ctx, query, key.AccountID, key.Contract, key.Month, key.Strategy, key.Direction)

	p, err := s.scanPosition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal("get position", err)
	}
	return p, nil
}

func (s *SQLiteStore) queryPositions(ctx context.Context, query string, args ...any) ([]*domain.Position, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal("query positions", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		p, err := s.scanPosition(rows.Scan)
		if err != nil {
			return nil, domain.Internal("decode position", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("query positions", err)
	}
	return positions, nil
}

func (s *SQLiteStore) ListPositions(ctx context.Context, accountID string) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE account_id = ? ORDER BY contract, month, strategy, direction`
	return s.queryPositions(ctx, query, accountID)
}

func (s *SQLiteStore) ListPositionsByContract(ctx context.Context, contract, month string) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE contract = ? AND month = ? ORDER BY account_id`
	return s.queryPositions(ctx, query, contract, month)
}

func (s *SQLiteStore) UpsertPosition(ctx context.Context, p *domain.Position) error {
	query := `INSERT INTO positions (` + positionColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(account_id, contract, month, strategy, direction) DO UPDATE SET
			  open_interest=excluded.open_interest,
			  avg_price=excluded.avg_price,
			  strike_price=excluded.strike_price,
			  premium=excluded.premium,
			  last_mark=excluded.last_mark,
			  unrealized_pnl=excluded.unrealized_pnl,
			  commissions=excluded.commissions,
			  updated_at=excluded.updated_at`
	_, err := s.q.ExecContext(ctx, query,
		p.AccountID, p.Contract, p.Month, p.Strategy, p.Direction, p.OpenInterest,
		p.AvgPrice.String(), p.StrikePrice.String(), p.Premium.String(),
		p.LastMark.String(), p.UnrealizedPnL.String(), p.Commissions.String(), p.UpdatedAt)
	if err != nil {
		return domain.Internal("upsert position", err)
	}
	return nil
}

func (s *SQLiteStore) DeletePosition(ctx context.Context, key domain.PositionKey) error {
	query := `DELETE FROM positions WHERE account_id = ? AND contract = ? AND month = ? AND strategy = ? AND direction = ?`
	_, err := s.q.ExecContext(ctx, query, key.AccountID, key.Contract, key.Month, key.Strategy, key.Direction)
	if err != nil {
		return domain.Internal("delete position", err)
	}
	return nil
}

// StatementRepository implementation

const statementColumns = `id, account_id, period_start, period_end, beginning_equity, deposits,
	withdrawals, realized_pnl, unrealized_pnl, commissions, ending_equity, created_at`

func (s *SQLiteStore) SaveStatement(ctx context.Context, st *domain.SettlementStatement) error {
	query := `INSERT INTO statements (` + statementColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query,
		st.ID, st.AccountID, st.PeriodStart, st.PeriodEnd,
		st.BeginningEquity.String(), st.Deposits.String(), st.Withdrawals.String(),
		st.RealizedPnL.String(), st.UnrealizedPnL.String(), st.Commissions.String(),
		st.EndingEquity.String(), st.CreatedAt)
	if err != nil {
		return domain.Internal("save statement", err)
	}
	return nil
}

func (s *SQLiteStore) scanStatement(scan func(...any) error) (*domain.SettlementStatement, error) {
	var st domain.SettlementStatement
	var beginning, deposits, withdrawals, realized, unrealized, commissions, ending string
	err := scan(&st.ID, &st.AccountID, &st.PeriodStart, &st.PeriodEnd,
		&beginning, &deposits, &withdrawals, &realized, &unrealized, &commissions, &ending, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{beginning, &st.BeginningEquity}, {deposits, &st.Deposits}, {withdrawals, &st.Withdrawals},
		{realized, &st.RealizedPnL}, {unrealized, &st.UnrealizedPnL},
		{commissions, &st.Commissions}, {ending, &st.EndingEquity},
	} {
		if err := scanDecimal(c.raw, c.dst); err != nil {
			return nil, err
		}
	}
	return &st, nil
}

func (s *SQLiteStore) GetStatement(ctx context.Context, id string) (*domain.SettlementStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = ?`
	row := s.q.QueryRowContext(ctx, query, id)

	st, err := s.scanStatement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("statement", id)
	}
	if err != nil {
		return nil, domain.Internal("get statement", err)
	}
	return st, nil
}

func (s *SQLiteStore) LatestStatementEndingBy(ctx context.Context, accountID string, t time.Time) (*domain.SettlementStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements
			  WHERE account_id = ? AND period_end <= ?
			  ORDER BY period_end DESC LIMIT 1`
	row := s.q.QueryRowContext(ctx, query, accountID, t)

	st, err := s.scanStatement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal("latest statement", err)
	}
	return st, nil
}

func (s *SQLiteStore) ListStatements(ctx context.Context, accountID string) ([]*domain.SettlementStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE account_id = ? ORDER BY period_end DESC`
	rows, err := s.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, domain.Internal("list statements", err)
	}
	defer rows.Close()

	var statements []*domain.SettlementStatement
	for rows.Next() {
		st, err := s.scanStatement(rows.Scan)
		if err != nil {
			return nil, domain.Internal("decode statement", err)
		}
		statements = append(statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("list statements", err)
	}
	return statements, nil
}

// TransferRepository implementation

func (s *SQLiteStore) SaveTransfer(ctx context.Context, t *domain.CashTransfer) error {
	query := `INSERT INTO transfers (id, account_id, kind, amount, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, t.ID, t.AccountID, t.Kind, t.Amount.String(), t.CreatedAt)
	if err != nil {
		return domain.Internal("save transfer", err)
	}
	return nil
}

func (s *SQLiteStore) SumTransfers(ctx context.Context, accountID string, kind domain.TransferKind, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT amount FROM transfers
			  WHERE account_id = ? AND kind = ? AND created_at >= ? AND created_at < ?`
	rows, err := s.q.QueryContext(ctx, query, accountID, kind, start, end)
	if err != nil {
		return decimal.Zero, domain.Internal("sum transfers", err)
	}
	defer rows.Close()

	// Summed in Go; amounts are TEXT and must stay exact.
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, domain.Internal("decode transfer", err)
		}
		var amount decimal.Decimal
		if err := scanDecimal(raw, &amount); err != nil {
			return decimal.Zero, domain.Internal("decode transfer", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, domain.Internal("sum transfers", err)
	}
	return total, nil
}

// MarkRepository implementation

func (s *SQLiteStore) UpsertMark(ctx context.Context, m *domain.MarkPrice) error {
	query := `INSERT INTO marks (contract, month, price, mark_date)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(contract, month) DO UPDATE SET
			  price=excluded.price,
			  mark_date=excluded.mark_date`
	_, err := s.q.ExecContext(ctx, query, m.Contract, m.Month, m.Price.String(), m.MarkDate)
	if err != nil {
		return domain.Internal("upsert mark", err)
	}
	return nil
}

func (s *SQLiteStore) GetMark(ctx context.Context, contract, month string) (*domain.MarkPrice, error) {
	query := `SELECT contract, month, price, mark_date FROM marks WHERE contract = ? AND month = ?`
	row := s.q.QueryRowContext(ctx, query, contract, month)

	var m domain.MarkPrice
	var price string
	err := row.Scan(&m.Contract, &m.Month, &price, &m.MarkDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal("get mark", err)
	}
	if err := scanDecimal(price, &m.Price); err != nil {
		return nil, domain.Internal("decode mark", err)
	}
	return &m, nil
}
