// backend/src/parsers/xstation/parser.go
package xstation

import (
	"strings"

	"github.com/username/tradejournal/backend/src/models"
)

// Source is the registry name of this parser.
const Source = "xstation5"

// XStationParser converts the text copied from the xStation 5 position-details
// panel into a ParsedTrade. It is immutable after construction and safe for
// concurrent use.
type XStationParser struct {
	labels Labels
}

// NewParser creates a parser for the default (Polish) label set.
func NewParser() *XStationParser {
	return NewParserWithLabels(Polish)
}

// NewParserWithLabels creates a parser for a specific localization.
func NewParserWithLabels(labels Labels) *XStationParser {
	return &XStationParser{labels: labels}
}

// Parse never fails: unknown lines are ignored, malformed numbers become 0,
// truncated time blocks are skipped.
func (p *XStationParser) Parse(text string) *models.ParsedTrade {
	lines := tokenize(text)

	trade := &models.ParsedTrade{Instrument: p.detectInstrument(lines)}
	p.walk(lines, trade)

	if trade.OpenTime != "" && trade.CloseTime != "" {
		duration := calculateDuration(trade.OpenTime, trade.CloseTime)
		trade.Duration = &duration
	}
	applyRiskReward(trade)

	return trade
}

// tokenize returns the non-blank lines of text, trimmed, in order. Every
// Unicode line or paragraph separator ends a line, not just \n and \r.
func tokenize(text string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func (p *XStationParser) detectInstrument(lines []string) string {
	for i, line := range lines {
		if line != p.labels.PositionDetails {
			continue
		}
		if i+1 < len(lines) {
			return lines[i+1]
		}
		return ""
	}
	return ""
}

// cursor walks the line sequence forward with lookahead.
type cursor struct {
	lines []string
	pos   int
}

func (c *cursor) done() bool { return c.pos >= len(c.lines) }

func (c *cursor) current() string { return c.lines[c.pos] }

// ahead returns the line n positions past the current one.
func (c *cursor) ahead(n int) (string, bool) {
	if c.pos+n < len(c.lines) {
		return c.lines[c.pos+n], true
	}
	return "", false
}

func (c *cursor) advance(n int) { c.pos += n }

func (p *XStationParser) walk(lines []string, trade *models.ParsedTrade) {
	c := &cursor{lines: lines}
	for !c.done() {
		line := c.current()

		if field, ok := p.labels.Values[line]; ok {
			value, _ := c.ahead(1)
			setField(trade, field, value)
			c.advance(2)
			continue
		}

		switch line {
		case p.labels.OpenTime:
			if stamp, ok := readTimestamp(c); ok {
				trade.OpenTime = stamp
				c.advance(3)
				continue
			}
		case p.labels.CloseTime:
			if stamp, ok := readTimestamp(c); ok {
				trade.CloseTime = stamp
				c.advance(3)
				continue
			}
		}
		c.advance(1)
	}
}

// readTimestamp joins the date and time lines that follow a time marker.
func readTimestamp(c *cursor) (string, bool) {
	date, ok := c.ahead(1)
	if !ok {
		return "", false
	}
	clock, ok := c.ahead(2)
	if !ok {
		return "", false
	}
	return date + " " + clock, true
}

func setField(trade *models.ParsedTrade, field Field, value string) {
	if field == FieldDirection {
		trade.Direction = normalizeDirection(value)
		return
	}

	v := ParseLocalizedFloat(value)
	switch field {
	case FieldSize:
		trade.Size = &v
	case FieldProfitLoss:
		trade.ProfitLoss = &v
	case FieldEntry:
		trade.Entry = &v
	case FieldExit:
		trade.Exit = &v
	case FieldStopLoss:
		trade.StopLoss = &v
	case FieldTakeProfit:
		trade.TakeProfit = &v
	}
}

// normalizeDirection maps "Buy" to long; every other value, known or not, is short.
func normalizeDirection(value string) string {
	if strings.ToLower(value) == "buy" {
		return models.DirectionLong
	}
	return models.DirectionShort
}
