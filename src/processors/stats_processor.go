package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
)

// StatsProcessor turns stored trades into dashboard statistics.
type StatsProcessor interface {
	Process(trades []model.Trade) models.TradeStats
}

type statsProcessorImpl struct{}

func NewStatsProcessor() StatsProcessor {
	return &statsProcessorImpl{}
}

type instrumentTotals struct {
	trades int
	pl     decimal.Decimal
}

func (p *statsProcessorImpl) Process(trades []model.Trade) models.TradeStats {
	stats := models.TradeStats{ByInstrument: []models.InstrumentStat{}}
	if len(trades) == 0 {
		return stats
	}

	var (
		total       = decimal.Zero
		profits     = decimal.Zero
		losses      = decimal.Zero
		biggestWin  = decimal.Zero
		biggestLoss = decimal.Zero
	)
	perInstrument := map[string]*instrumentTotals{}

	for _, t := range trades {
		pl := decimal.NewFromFloat(t.ProfitLoss)
		total = total.Add(pl)

		switch {
		case pl.IsPositive():
			stats.WinningTrades++
			profits = profits.Add(pl)
			if pl.GreaterThan(biggestWin) {
				biggestWin = pl
			}
		case pl.IsNegative():
			stats.LosingTrades++
			losses = losses.Add(pl)
			if pl.LessThan(biggestLoss) {
				biggestLoss = pl
			}
		}

		switch t.Direction {
		case models.DirectionLong:
			stats.LongTrades++
		case models.DirectionShort:
			stats.ShortTrades++
		}

		it, ok := perInstrument[t.Instrument]
		if !ok {
			it = &instrumentTotals{pl: decimal.Zero}
			perInstrument[t.Instrument] = it
		}
		it.trades++
		it.pl = it.pl.Add(pl)
	}

	stats.TotalTrades = len(trades)
	stats.WinRate = round2(decimal.NewFromInt(int64(stats.WinningTrades)).
		Div(decimal.NewFromInt(int64(stats.TotalTrades))).
		Mul(decimal.NewFromInt(100)))
	if stats.WinningTrades > 0 {
		stats.AverageProfit = round2(profits.Div(decimal.NewFromInt(int64(stats.WinningTrades))))
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = round2(losses.Div(decimal.NewFromInt(int64(stats.LosingTrades))))
	}
	stats.BiggestWin = round2(biggestWin)
	stats.BiggestLoss = round2(biggestLoss)
	stats.TotalPL = round2(total)

	for name, it := range perInstrument {
		stats.ByInstrument = append(stats.ByInstrument, models.InstrumentStat{
			Instrument: name,
			Trades:     it.trades,
			ProfitLoss: round2(it.pl),
		})
	}
	sort.Slice(stats.ByInstrument, func(i, j int) bool {
		return stats.ByInstrument[i].Instrument < stats.ByInstrument[j].Instrument
	})

	return stats
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
