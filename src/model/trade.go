package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrScreenshotNotFound = errors.New("screenshot not found")
)

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

type Trade struct {
	ID          int64        `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Instrument  string       `json:"instrument"`
	Direction   string       `json:"direction"`
	Entry       float64      `json:"entry"`
	Exit        float64      `json:"exit"`
	StopLoss    float64      `json:"stop_loss"`
	TakeProfit  float64      `json:"take_profit"`
	Size        float64      `json:"size"`
	Risk        float64      `json:"risk"`
	Reward      float64      `json:"reward"`
	ProfitLoss  float64      `json:"profit_loss"`
	Duration    string       `json:"duration"`
	Comments    string       `json:"comments"`
	Screenshots []Screenshot `json:"screenshots"`
}

type Screenshot struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath,omitempty"`
	UploadDate time.Time `json:"upload_date"`
	TradeID    int64     `json:"trade_id"`
}

const tradeColumns = `id, timestamp, instrument, direction, entry, exit, stop_loss, take_profit,
	size, risk, reward, profit_loss, duration, comments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*Trade, error) {
	var t Trade
	var ts string
	err := row.Scan(&t.ID, &ts, &t.Instrument, &t.Direction, &t.Entry, &t.Exit, &t.StopLoss,
		&t.TakeProfit, &t.Size, &t.Risk, &t.Reward, &t.ProfitLoss, &t.Duration, &t.Comments)
	if err != nil {
		return nil, err
	}
	if t.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
		return nil, fmt.Errorf("invalid timestamp %q for trade %d: %w", ts, t.ID, err)
	}
	t.Screenshots = []Screenshot{}
	return &t, nil
}

// CreateTrade inserts t, filling in ID and, when zero, Timestamp.
func CreateTrade(db *sql.DB, t *Trade) error {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	res, err := db.Exec(`INSERT INTO trades
		(timestamp, instrument, direction, entry, exit, stop_loss, take_profit,
		size, risk, reward, profit_loss, duration, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Timestamp.Format(timeLayout), t.Instrument, t.Direction, t.Entry, t.Exit, t.StopLoss, t.TakeProfit,
		t.Size, t.Risk, t.Reward, t.ProfitLoss, t.Duration, t.Comments)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read trade id: %w", err)
	}
	if t.Screenshots == nil {
		t.Screenshots = []Screenshot{}
	}
	return nil
}

// GetTradeByID loads one trade with its screenshots.
func GetTradeByID(db *sql.DB, id int64) (*Trade, error) {
	t, err := scanTrade(db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to load trade %d: %w", id, err)
	}
	if t.Screenshots, err = ListScreenshotsByTrade(db, id); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTrades returns all trades, newest first, each with its screenshots.
func ListTrades(db *sql.DB) ([]Trade, error) {
	rows, err := db.Query(`SELECT ` + tradeColumns + ` FROM trades ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	index := map[int64]int{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		index[t.ID] = len(trades)
		trades = append(trades, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trades: %w", err)
	}
	rows.Close()

	screenshots, err := queryScreenshots(db, `SELECT id, filename, filepath, upload_date, trade_id FROM screenshots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for _, s := range screenshots {
		if i, ok := index[s.TradeID]; ok {
			trades[i].Screenshots = append(trades[i].Screenshots, s)
		}
	}
	return trades, nil
}

// UpdateTrade overwrites every column of the stored trade with t.
func UpdateTrade(db *sql.DB, t *Trade) error {
	res, err := db.Exec(`UPDATE trades SET
		instrument = ?, direction = ?, entry = ?, exit = ?, stop_loss = ?, take_profit = ?,
		size = ?, risk = ?, reward = ?, profit_loss = ?, duration = ?, comments = ?
		WHERE id = ?`,
		t.Instrument, t.Direction, t.Entry, t.Exit, t.StopLoss, t.TakeProfit,
		t.Size, t.Risk, t.Reward, t.ProfitLoss, t.Duration, t.Comments, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade %d: %w", t.ID, err)
	}
	return requireAffected(res, ErrTradeNotFound)
}

// DeleteTrade removes the trade; its screenshot rows go with it through the
// foreign key cascade.
func DeleteTrade(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	return requireAffected(res, ErrTradeNotFound)
}

// CreateScreenshot inserts s, filling in ID and, when zero, UploadDate.
func CreateScreenshot(db *sql.DB, s *Screenshot) error {
	if s.UploadDate.IsZero() {
		s.UploadDate = time.Now().UTC()
	}
	res, err := db.Exec(`INSERT INTO screenshots (filename, filepath, upload_date, trade_id) VALUES (?, ?, ?, ?)`,
		s.Filename, s.Filepath, s.UploadDate.Format(timeLayout), s.TradeID)
	if err != nil {
		return fmt.Errorf("failed to insert screenshot for trade %d: %w", s.TradeID, err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read screenshot id: %w", err)
	}
	return nil
}

func GetScreenshotByID(db *sql.DB, id int64) (*Screenshot, error) {
	var s Screenshot
	var uploaded string
	err := db.QueryRow(`SELECT id, filename, filepath, upload_date, trade_id FROM screenshots WHERE id = ?`, id).
		Scan(&s.ID, &s.Filename, &s.Filepath, &uploaded, &s.TradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreenshotNotFound
		}
		return nil, fmt.Errorf("failed to load screenshot %d: %w", id, err)
	}
	if s.UploadDate, err = time.Parse(timeLayout, uploaded); err != nil {
		return nil, fmt.Errorf("invalid upload date %q for screenshot %d: %w", uploaded, id, err)
	}
	return &s, nil
}

func ListScreenshotsByTrade(db *sql.DB, tradeID int64) ([]Screenshot, error) {
	return queryScreenshots(db, `SELECT id, filename, filepath, upload_date, trade_id FROM screenshots WHERE trade_id = ? ORDER BY id`, tradeID)
}

func DeleteScreenshot(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM screenshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete screenshot %d: %w", id, err)
	}
	return requireAffected(res, ErrScreenshotNotFound)
}

func queryScreenshots(db *sql.DB, query string, args ...any) ([]Screenshot, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	screenshots := []Screenshot{}
	for rows.Next() {
		var s Screenshot
		var uploaded string
		if err := rows.Scan(&s.ID, &s.Filename, &s.Filepath, &uploaded, &s.TradeID); err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}
		if s.UploadDate, err = time.Parse(timeLayout, uploaded); err != nil {
			return nil, fmt.Errorf("invalid upload date %q for screenshot %d: %w", uploaded, s.ID, err)
		}
		screenshots = append(screenshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over screenshots: %w", err)
	}
	return screenshots, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
