package xstation

// Field is a ParsedTrade field that a panel label maps to.
type Field string

const (
	FieldDirection  Field = "direction"
	FieldSize       Field = "size"
	FieldProfitLoss Field = "profit_loss"
	FieldEntry      Field = "entry"
	FieldExit       Field = "exit"
	FieldStopLoss   Field = "stop_loss"
	FieldTakeProfit Field = "take_profit"
)

// Labels is the label table of one localization of the position-details panel.
// Label matching is exact on the trimmed line.
type Labels struct {
	Name            string
	PositionDetails string // marker line preceding the instrument name
	OpenTime        string // marker followed by a date line and a time line
	CloseTime       string
	Values          map[string]Field // label line -> field of the following line
}

// Polish is the label set of the xStation 5 panel in the Polish UI.
var Polish = Labels{
	Name:            "pl",
	PositionDetails: "Szczegóły pozycji",
	OpenTime:        "Czas otwarcia",
	CloseTime:       "Czas zamknięcia",
	Values: map[string]Field{
		"Typ":             FieldDirection,
		"Wolumen":         FieldSize,
		"Zysk netto":      FieldProfitLoss,
		"Cena otwarcia":   FieldEntry,
		"Cena zamknięcia": FieldExit,
		"Stop Loss":       FieldStopLoss,
		"Take Profit":     FieldTakeProfit,
	},
}
