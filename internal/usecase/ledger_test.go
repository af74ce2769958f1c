package usecase_test

import (
	"testing"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/baltex/ffa_ledger/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLedgerOpenNewPosition(t *testing.T) {
	var ledger usecase.PositionLedger

	req := validOpen()
	tr, err := ledger.Apply(nil, "acc-1", req, decimal.NewFromInt(30), time.Now())
	require.NoError(t, err)

	require.False(t, tr.Deleted)
	require.NotNil(t, tr.Position)
	require.Equal(t, int64(5), tr.Position.OpenInterest)
	require.True(t, tr.Position.AvgPrice.Equal(decimal.NewFromInt(15000)))
	require.True(t, tr.Position.LastMark.Equal(decimal.NewFromInt(15000)))
	require.True(t, tr.Position.UnrealizedPnL.IsZero())
	require.True(t, tr.Position.Commissions.Equal(decimal.NewFromInt(30)))
	require.True(t, tr.RealizedPnL.IsZero())
	require.Equal(t, int64(0), tr.PreviousVolume)
	require.Equal(t, int64(5), tr.ResultingVolume)
}

func TestLedgerIncreaseWeightsAverage(t *testing.T) {
	var ledger usecase.PositionLedger

	first := validOpen()
	first.Price = decimal.NewFromInt(1000)
	first.Volume = 10
	tr, err := ledger.Apply(nil, "acc-1", first, decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)

	second := validOpen()
	second.Price = decimal.NewFromInt(1200)
	second.Volume = 10
	tr, err = ledger.Apply(tr.Position, "acc-1", second, decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)

	require.Equal(t, int64(20), tr.Position.OpenInterest)
	require.True(t, tr.Position.AvgPrice.Equal(decimal.NewFromInt(1100)), "avg = %s", tr.Position.AvgPrice)
	require.True(t, tr.Position.Commissions.Equal(decimal.NewFromInt(20)))
	require.True(t, tr.RealizedPnL.IsZero())
}

func TestLedgerPartialClose(t *testing.T) {
	var ledger usecase.PositionLedger

	open := validOpen()
	open.Direction = domain.DirectionShort
	open.Price = decimal.NewFromInt(20000)
	open.Volume = 10
	tr, err := ledger.Apply(nil, "acc-1", open, decimal.Zero, time.Now())
	require.NoError(t, err)

	closeReq := open
	closeReq.Action = domain.ActionClose
	closeReq.Price = decimal.NewFromInt(19000)
	closeReq.Volume = 4
	tr, err = ledger.Apply(tr.Position, "acc-1", closeReq, decimal.Zero, time.Now())
	require.NoError(t, err)

	require.False(t, tr.Deleted)
	require.Equal(t, int64(6), tr.Position.OpenInterest)
	// The average price survives partial closes untouched.
	require.True(t, tr.Position.AvgPrice.Equal(decimal.NewFromInt(20000)))
	require.True(t, tr.RealizedPnL.Equal(decimal.NewFromInt(4000)), "pnl = %s", tr.RealizedPnL)
}

func TestLedgerFullClose(t *testing.T) {
	var ledger usecase.PositionLedger

	open := validOpen()
	tr, err := ledger.Apply(nil, "acc-1", open, decimal.Zero, time.Now())
	require.NoError(t, err)

	closeReq := open
	closeReq.Action = domain.ActionClose
	closeReq.Price = decimal.NewFromInt(15500)
	tr, err = ledger.Apply(tr.Position, "acc-1", closeReq, decimal.Zero, time.Now())
	require.NoError(t, err)

	require.True(t, tr.Deleted)
	require.Nil(t, tr.Position)
	require.True(t, tr.RealizedPnL.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, int64(5), tr.PreviousVolume)
	require.Equal(t, int64(0), tr.ResultingVolume)
}

func TestLedgerVolumeConservation(t *testing.T) {
	var ledger usecase.PositionLedger

	steps := []struct {
		action domain.Action
		volume int64
	}{
		{domain.ActionOpen, 10},
		{domain.ActionOpen, 5},
		{domain.ActionClose, 7},
		{domain.ActionOpen, 2},
		{domain.ActionClose, 6},
	}

	var pos *domain.Position
	opened, closed := int64(0), int64(0)
	for _, step := range steps {
		req := validOpen()
		req.Action = step.action
		req.Volume = step.volume
		tr, err := ledger.Apply(pos, "acc-1", req, decimal.Zero, time.Now())
		require.NoError(t, err)
		pos = tr.Position

		if step.action == domain.ActionOpen {
			opened += step.volume
		} else {
			closed += step.volume
		}
		if pos != nil {
			require.GreaterOrEqual(t, pos.OpenInterest, int64(0))
		}
	}

	require.NotNil(t, pos)
	require.Equal(t, opened-closed, pos.OpenInterest)
}
