package models

// TradeForm holds the fields submitted when creating or editing a trade.
// A nil pointer means the field was not part of the request.
type TradeForm struct {
	Instrument *string
	Direction  *string
	Entry      *float64
	Exit       *float64
	StopLoss   *float64
	TakeProfit *float64
	Size       *float64
	Risk       *float64
	Reward     *float64
	ProfitLoss *float64
	Duration   *string
	Comments   *string
}

// InstrumentStat is the result of all trades in one instrument.
type InstrumentStat struct {
	Instrument string  `json:"instrument"`
	Trades     int     `json:"trades"`
	ProfitLoss float64 `json:"profit_loss"`
}

// TradeStats summarizes the journal for the dashboard.
type TradeStats struct {
	TotalTrades   int              `json:"total_trades"`
	WinningTrades int              `json:"winning_trades"`
	LosingTrades  int              `json:"losing_trades"`
	WinRate       float64          `json:"win_rate"`
	AverageProfit float64          `json:"average_profit"`
	AverageLoss   float64          `json:"average_loss"`
	BiggestWin    float64          `json:"biggest_win"`
	BiggestLoss   float64          `json:"biggest_loss"`
	TotalPL       float64          `json:"total_pl"`
	LongTrades    int              `json:"long_trades"`
	ShortTrades   int              `json:"short_trades"`
	ByInstrument  []InstrumentStat `json:"by_instrument"`
}
