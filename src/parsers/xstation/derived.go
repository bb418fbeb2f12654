package xstation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

// timestampLayout matches "DD.MM.YYYY HH:MM"; single-digit day, month and
// hour are accepted as well.
const timestampLayout = "2.1.2006 15:04"

// pipFactor converts a forex price difference to pips.
const pipFactor = 10000

var forexCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "NZD", "CAD", "CHF"}

// calculateDuration returns the whole minutes between the two timestamps as
// "<n> min", or "" if either cannot be read.
func calculateDuration(openTime, closeTime string) string {
	opened, err := time.Parse(timestampLayout, openTime)
	if err != nil {
		return ""
	}
	closed, err := time.Parse(timestampLayout, closeTime)
	if err != nil {
		return ""
	}
	minutes := int64(closed.Sub(opened) / time.Minute)
	return fmt.Sprintf("%d min", minutes)
}

// IsForex reports whether the instrument symbol contains a currency code.
func IsForex(instrument string) bool {
	upper := strings.ToUpper(instrument)
	for _, code := range forexCurrencies {
		if strings.Contains(upper, code) {
			return true
		}
	}
	return false
}

// applyRiskReward sets Risk and Reward when entry, stop loss, take profit and
// size are all present and non-zero and the direction is known. If the
// calculation cannot produce a finite value both are forced to 0.
func applyRiskReward(trade *models.ParsedTrade) {
	entry, sl, tp, size := value(trade.Entry), value(trade.StopLoss), value(trade.TakeProfit), value(trade.Size)
	if entry == 0 || sl == 0 || tp == 0 || size == 0 {
		return
	}
	if trade.Direction != models.DirectionLong && trade.Direction != models.DirectionShort {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			setRiskReward(trade, 0, 0)
		}
	}()

	risk, reward := riskReward(trade.Direction, IsForex(trade.Instrument), entry, sl, tp, size)
	if !isFinite(risk) || !isFinite(reward) {
		setRiskReward(trade, 0, 0)
		return
	}
	setRiskReward(trade, utils.RoundFloat(risk, 2), utils.RoundFloat(reward, 2))
}

// riskReward applies the pip-scaled, absolute formulas to forex and the raw,
// signed formulas to everything else. A stop on the wrong side of the entry
// gives a negative non-forex risk.
func riskReward(direction string, forex bool, entry, sl, tp, size float64) (risk, reward float64) {
	switch {
	case direction == models.DirectionLong && forex:
		return math.Abs(entry-sl) * pipFactor * size, math.Abs(tp-entry) * pipFactor * size
	case direction == models.DirectionLong:
		return (entry - sl) * size, (tp - entry) * size
	case forex:
		return math.Abs(sl-entry) * pipFactor * size, math.Abs(entry-tp) * pipFactor * size
	default:
		return (sl - entry) * size, (entry - tp) * size
	}
}

func setRiskReward(trade *models.ParsedTrade, risk, reward float64) {
	trade.Risk = &risk
	trade.Reward = &reward
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
