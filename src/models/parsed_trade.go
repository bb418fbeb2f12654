package models

// Trade directions as stored and returned by the API.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// ParsedTrade is the best-effort structured form of a position pasted from a
// trading platform. Pointer fields distinguish "not found in the text" (nil)
// from a found value that happens to be zero or empty.
type ParsedTrade struct {
	Instrument string   `json:"instrument"`
	Direction  string   `json:"direction,omitempty"` // "long" or "short"
	Size       *float64 `json:"size,omitempty"`
	Entry      *float64 `json:"entry,omitempty"`
	Exit       *float64 `json:"exit,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	ProfitLoss *float64 `json:"profit_loss,omitempty"`
	OpenTime   string   `json:"open_time,omitempty"`  // DD.MM.YYYY HH:MM
	CloseTime  string   `json:"close_time,omitempty"` // DD.MM.YYYY HH:MM
	Duration   *string  `json:"duration,omitempty"`   // "<n> min", "" when a time could not be read
	Risk       *float64 `json:"risk,omitempty"`
	Reward     *float64 `json:"reward,omitempty"`
}
