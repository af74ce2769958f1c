package usecase_test

import (
	"context"
	"sort"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// memRepo is an in-memory domain.Repository for service tests. WithinTx
// snapshots state and restores it when fn fails, mirroring rollback.
type memRepo struct {
	accounts   map[string]*domain.Account
	trades     []*domain.Trade
	positions  map[domain.PositionKey]*domain.Position
	statements map[string]*domain.SettlementStatement
	transfers  []*domain.CashTransfer
	marks      map[[2]string]*domain.MarkPrice
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:   make(map[string]*domain.Account),
		positions:  make(map[domain.PositionKey]*domain.Position),
		statements: make(map[string]*domain.SettlementStatement),
		marks:      make(map[[2]string]*domain.MarkPrice),
	}
}

func (m *memRepo) snapshot() *memRepo {
	s := newMemRepo()
	for k, v := range m.accounts {
		c := *v
		s.accounts[k] = &c
	}
	for _, t := range m.trades {
		c := *t
		s.trades = append(s.trades, &c)
	}
	for k, v := range m.positions {
		c := *v
		s.positions[k] = &c
	}
	for k, v := range m.statements {
		c := *v
		s.statements[k] = &c
	}
	for _, t := range m.transfers {
		c := *t
		s.transfers = append(s.transfers, &c)
	}
	for k, v := range m.marks {
		c := *v
		s.marks[k] = &c
	}
	return s
}

func (m *memRepo) restore(s *memRepo) {
	m.accounts = s.accounts
	m.trades = s.trades
	m.positions = s.positions
	m.statements = s.statements
	m.transfers = s.transfers
	m.marks = s.marks
}

func (m *memRepo) WithinTx(ctx context.Context, fn func(domain.Repository) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// AccountRepository

func (m *memRepo) CreateAccount(ctx context.Context, a *domain.Account) error {
	c := *a
	m.accounts[a.ID] = &c
	return nil
}

func (m *memRepo) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.NotFound("account", id)
	}
	c := *a
	return &c, nil
}

func (m *memRepo) UpdateAccount(ctx context.Context, a *domain.Account) error {
	if _, ok := m.accounts[a.ID]; !ok {
		return domain.NotFound("account", a.ID)
	}
	c := *a
	m.accounts[a.ID] = &c
	return nil
}

// TradeRepository

func (m *memRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	c := *t
	m.trades = append(m.trades, &c)
	return nil
}

func (m *memRepo) ListTrades(ctx context.Context, accountID string, limit int) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for i := len(m.trades) - 1; i >= 0 && len(out) < limit; i-- {
		if m.trades[i].AccountID == accountID {
			c := *m.trades[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRepo) ListTradesInWindow(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for _, t := range m.trades {
		if t.AccountID == accountID && !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) ListTradesForKey(ctx context.Context, key domain.PositionKey, end time.Time) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for _, t := range m.trades {
		if t.Key() == key && t.CreatedAt.Before(end) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PositionRepository

func (m *memRepo) GetPosition(ctx context.Context, key domain.PositionKey) (*domain.Position, error) {
	p, ok := m.positions[key]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *memRepo) ListPositions(ctx context.Context, accountID string) ([]*domain.Position, error) {
	var out []*domain.Position
	for _, p := range m.positions {
		if p.AccountID == accountID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contract < out[j].Contract })
	return out, nil
}

func (m *memRepo) ListPositionsByContract(ctx context.Context, contract, month string) ([]*domain.Position, error) {
	var out []*domain.Position
	for _, p := range m.positions {
		if p.Contract == contract && p.Month == month {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (m *memRepo) UpsertPosition(ctx context.Context, p *domain.Position) error {
	c := *p
	m.positions[p.Key()] = &c
	return nil
}

func (m *memRepo) DeletePosition(ctx context.Context, key domain.PositionKey) error {
	delete(m.positions, key)
	return nil
}

// StatementRepository

func (m *memRepo) SaveStatement(ctx context.Context, s *domain.SettlementStatement) error {
	c := *s
	m.statements[s.ID] = &c
	return nil
}

func (m *memRepo) GetStatement(ctx context.Context, id string) (*domain.SettlementStatement, error) {
	s, ok := m.statements[id]
	if !ok {
		return nil, domain.NotFound("statement", id)
	}
	c := *s
	return &c, nil
}

func (m *memRepo) LatestStatementEndingBy(ctx context.Context, accountID string, t time.Time) (*domain.SettlementStatement, error) {
	var latest *domain.SettlementStatement
	for _, s := range m.statements {
		if s.AccountID != accountID || s.PeriodEnd.After(t) {
			continue
		}
		if latest == nil || s.PeriodEnd.After(latest.PeriodEnd) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (m *memRepo) ListStatements(ctx context.Context, accountID string) ([]*domain.SettlementStatement, error) {
	var out []*domain.SettlementStatement
	for _, s := range m.statements {
		if s.AccountID == accountID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd.After(out[j].PeriodEnd) })
	return out, nil
}

// TransferRepository

func (m *memRepo) SaveTransfer(ctx context.Context, t *domain.CashTransfer) error {
	c := *t
	m.transfers = append(m.transfers, &c)
	return nil
}

func (m *memRepo) SumTransfers(ctx context.Context, accountID string, kind domain.TransferKind, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.transfers {
		if t.AccountID == accountID && t.Kind == kind && !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// MarkRepository

func (m *memRepo) UpsertMark(ctx context.Context, mk *domain.MarkPrice) error {
	c := *mk
	m.marks[[2]string{mk.Contract, mk.Month}] = &c
	return nil
}

func (m *memRepo) GetMark(ctx context.Context, contract, month string) (*domain.MarkPrice, error) {
	mk, ok := m.marks[[2]string{contract, month}]
	if !ok {
		return nil, nil
	}
	c := *mk
	return &c, nil
}
