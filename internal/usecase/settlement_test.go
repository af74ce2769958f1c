package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGenerateStatement(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	account := env.newAccount(t, 1_000_000)
	start := time.Now().UTC().Add(-time.Hour)

	open := validOpen()
	_, err := env.engine.ExecuteTrade(ctx, account.ID, open)
	require.NoError(t, err)

	closeReq := open
	closeReq.Action = domain.ActionClose
	closeReq.Price = decimal.NewFromInt(15500)
	_, err = env.engine.ExecuteTrade(ctx, account.ID, closeReq)
	require.NoError(t, err)

	_, err = env.accounts.Deposit(ctx, account.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)
	_, err = env.accounts.Withdraw(ctx, account.ID, decimal.NewFromInt(1200))
	require.NoError(t, err)

	end := time.Now().UTC().Add(time.Hour)
	stmt, err := env.settlement.Generate(ctx, account.ID, start, end)
	require.NoError(t, err)

	require.True(t, stmt.BeginningEquity.Equal(decimal.NewFromInt(1_000_000)))
	require.True(t, stmt.Deposits.Equal(decimal.NewFromInt(5000)))
	require.True(t, stmt.Withdrawals.Equal(decimal.NewFromInt(1200)))
	require.True(t, stmt.RealizedPnL.Equal(decimal.NewFromInt(2500)))
	// open 30 + close 30.5
	require.True(t, stmt.Commissions.Equal(decimal.RequireFromString("60.5")), "commissions = %s", stmt.Commissions)
	require.True(t, stmt.UnrealizedPnL.IsZero())

	want := stmt.BeginningEquity.
		Add(stmt.Deposits).Sub(stmt.Withdrawals).
		Add(stmt.RealizedPnL).Sub(stmt.Commissions)
	require.True(t, stmt.EndingEquity.Equal(want))

	// With every cash movement inside the window, the statement closes
	// at the account's live equity.
	got, err := env.repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, stmt.EndingEquity.Equal(got.CurrentEquity), "ending = %s equity = %s", stmt.EndingEquity, got.CurrentEquity)
}

func TestStatementChaining(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	account := env.newAccount(t, 1_000_000)
	start := time.Now().UTC().Add(-time.Hour)

	open := validOpen()
	_, err := env.engine.ExecuteTrade(ctx, account.ID, open)
	require.NoError(t, err)

	mid := time.Now().UTC().Add(time.Minute)
	first, err := env.settlement.Generate(ctx, account.ID, start, mid)
	require.NoError(t, err)

	// A quiet second period begins exactly where the first ended.
	second, err := env.settlement.Generate(ctx, account.ID, mid, mid.Add(time.Hour))
	require.NoError(t, err)

	require.True(t, second.BeginningEquity.Equal(first.EndingEquity),
		"beginning = %s ending = %s", second.BeginningEquity, first.EndingEquity)
	require.True(t, second.EndingEquity.Equal(first.EndingEquity))
	require.True(t, second.RealizedPnL.IsZero())
	require.True(t, second.Commissions.IsZero())
}

func TestGenerateStatementSnapshotsLivePositions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	account := env.newAccount(t, 1_000_000)

	start := time.Now().UTC().Add(-2 * time.Hour)
	end := time.Now().UTC().Add(-time.Hour)

	// Position opened after the window, statement generated late for the
	// past window: unrealized reflects the live snapshot, not the window.
	open := validOpen()
	_, err := env.engine.ExecuteTrade(ctx, account.ID, open)
	require.NoError(t, err)

	err = env.engine.ApplyMarks(ctx, []domain.MarkPrice{
		{Contract: open.Contract, Month: open.Month, Price: decimal.NewFromInt(15400)},
	})
	require.NoError(t, err)

	stmt, err := env.settlement.Generate(ctx, account.ID, start, end)
	require.NoError(t, err)

	require.True(t, stmt.RealizedPnL.IsZero())
	require.True(t, stmt.Commissions.IsZero())
	require.True(t, stmt.UnrealizedPnL.Equal(decimal.NewFromInt(2000)), "unrealized = %s", stmt.UnrealizedPnL)
}

func TestGenerateStatementInvalidPeriod(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(t, 1000)

	now := time.Now().UTC()
	_, err := env.settlement.Generate(context.Background(), account.ID, now, now)
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestStatementDetailFIFOPairing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	account := env.newAccount(t, 1_000_000)
	start := time.Now().UTC().Add(-time.Hour)

	// Two lots, then one close that spans both.
	first := validOpen()
	first.Price = decimal.NewFromInt(900)
	first.Volume = 5
	openA, err := env.engine.ExecuteTrade(ctx, account.ID, first)
	require.NoError(t, err)

	second := validOpen()
	second.Price = decimal.NewFromInt(1100)
	second.Volume = 5
	openB, err := env.engine.ExecuteTrade(ctx, account.ID, second)
	require.NoError(t, err)

	closeReq := validOpen()
	closeReq.Action = domain.ActionClose
	closeReq.Price = decimal.NewFromInt(1200)
	closeReq.Volume = 8
	closeTrade, err := env.engine.ExecuteTrade(ctx, account.ID, closeReq)
	require.NoError(t, err)

	stmt, err := env.settlement.Generate(ctx, account.ID, start, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	got, details, err := env.settlement.StatementDetail(ctx, stmt.ID)
	require.NoError(t, err)
	require.Equal(t, stmt.ID, got.ID)
	require.Len(t, details, 2)

	// FIFO: the oldest lot empties first.
	require.Equal(t, openA.ID, details[0].OpenTradeID)
	require.Equal(t, closeTrade.ID, details[0].CloseTradeID)
	require.Equal(t, int64(5), details[0].Volume)
	require.True(t, details[0].OpenPrice.Equal(decimal.NewFromInt(900)))
	require.True(t, details[0].RealizedPnL.Equal(decimal.NewFromInt(1500)), "pnl = %s", details[0].RealizedPnL)

	require.Equal(t, openB.ID, details[1].OpenTradeID)
	require.Equal(t, int64(3), details[1].Volume)
	require.True(t, details[1].OpenPrice.Equal(decimal.NewFromInt(1100)))
	require.True(t, details[1].RealizedPnL.Equal(decimal.NewFromInt(300)), "pnl = %s", details[1].RealizedPnL)
}

func TestStatementDetailNotFound(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.settlement.StatementDetail(context.Background(), "missing")
	require.True(t, domain.IsNotFound(err), "err = %v", err)
}
