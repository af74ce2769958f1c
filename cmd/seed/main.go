// Seeds a demo account with a short trading session. Useful for poking
// the API without a client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/baltex/ffa_ledger/internal/infrastructure/storage"
	"github.com/baltex/ffa_ledger/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	dbPath := "ledger.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Printf("Failed to open sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	log := zap.NewNop()
	locks := usecase.NewAccountLocks()
	fees := usecase.NewFeeCalculator(usecase.FeeSchedule{
		CommissionRate: decimal.RequireFromString("0.0002"),
		ClearingFee:    decimal.RequireFromString("15"),
	})
	engine := usecase.NewTradingEngine(store, fees, locks, log, log)
	accounts := usecase.NewAccountService(store, locks, log)

	ctx := context.Background()

	account, err := accounts.CreateAccount(ctx, "demo", decimal.NewFromInt(1_000_000))
	if err != nil {
		fmt.Printf("Failed to create account: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("account: %s\n", account.ID)

	requests := []domain.TradeRequest{
		{Contract: "P4TC", Month: "NOV-26", Strategy: domain.StrategyFuture, Action: domain.ActionOpen, Direction: domain.DirectionLong, Price: decimal.NewFromInt(15000), Volume: 5},
		{Contract: "P4TC", Month: "NOV-26", Strategy: domain.StrategyFuture, Action: domain.ActionOpen, Direction: domain.DirectionLong, Price: decimal.NewFromInt(15200), Volume: 5},
		{Contract: "C5TC", Month: "DEC-26", Strategy: domain.StrategyFuture, Action: domain.ActionOpen, Direction: domain.DirectionShort, Price: decimal.NewFromInt(20000), Volume: 10},
		{Contract: "P4TC", Month: "NOV-26", Strategy: domain.StrategyFuture, Action: domain.ActionClose, Direction: domain.DirectionLong, Price: decimal.NewFromInt(15500), Volume: 4},
	}
	for _, req := range requests {
		trade, err := engine.ExecuteTrade(ctx, account.ID, req)
		if err != nil {
			fmt.Printf("trade failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("trade %s: %s %s %s %d @ %s pnl=%s\n",
			trade.ID, trade.Action, trade.Direction, trade.Contract,
			trade.Volume, trade.Price, trade.TradePnL)
	}

	summary, err := accounts.Summary(ctx, account.ID)
	if err != nil {
		fmt.Printf("summary failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("equity: %s, total pnl: %s, open positions: %d\n",
		summary.Account.CurrentEquity, summary.Account.TotalPnL, len(summary.Positions))
}
