package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
)

func TestStatsProcessorEmpty(t *testing.T) {
	stats := NewStatsProcessor().Process(nil)

	assert.Equal(t, models.TradeStats{ByInstrument: []models.InstrumentStat{}}, stats)
}

func TestStatsProcessor(t *testing.T) {
	trades := []model.Trade{
		{Instrument: "EURUSD", Direction: "long", ProfitLoss: 50.1},
		{Instrument: "EURUSD", Direction: "short", ProfitLoss: -20.2},
		{Instrument: "GOLD", Direction: "long", ProfitLoss: 100.2},
		{Instrument: "US500", Direction: "short", ProfitLoss: -10},
		{Instrument: "GOLD", Direction: "", ProfitLoss: 0},
	}

	stats := NewStatsProcessor().Process(trades)

	assert.Equal(t, 5, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.Equal(t, 40.0, stats.WinRate)
	assert.Equal(t, 75.15, stats.AverageProfit)
	assert.Equal(t, -15.1, stats.AverageLoss)
	assert.Equal(t, 100.2, stats.BiggestWin)
	assert.Equal(t, -20.2, stats.BiggestLoss)
	// 50.1 - 20.2 + 100.2 - 10 in float64 would not be exactly 120.1.
	assert.Equal(t, 120.1, stats.TotalPL)
	assert.Equal(t, 2, stats.LongTrades)
	assert.Equal(t, 2, stats.ShortTrades)

	assert.Equal(t, []models.InstrumentStat{
		{Instrument: "EURUSD", Trades: 2, ProfitLoss: 29.9},
		{Instrument: "GOLD", Trades: 2, ProfitLoss: 100.2},
		{Instrument: "US500", Trades: 1, ProfitLoss: -10},
	}, stats.ByInstrument)
}

func TestStatsProcessorOnlyLosses(t *testing.T) {
	stats := NewStatsProcessor().Process([]model.Trade{
		{Instrument: "DE40", ProfitLoss: -5},
		{Instrument: "DE40", ProfitLoss: -15},
	})

	assert.Equal(t, 0.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.AverageProfit)
	assert.Equal(t, -10.0, stats.AverageLoss)
	assert.Equal(t, 0.0, stats.BiggestWin)
	assert.Equal(t, -15.0, stats.BiggestLoss)
}

func TestStatsProcessorWinRateRounding(t *testing.T) {
	stats := NewStatsProcessor().Process([]model.Trade{
		{ProfitLoss: 1}, {ProfitLoss: -1}, {ProfitLoss: -1},
	})

	assert.Equal(t, 33.33, stats.WinRate)
}
