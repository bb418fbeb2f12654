package services

import (
	"errors"
	"io"

	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
)

var (
	ErrParsingFailed = errors.New("trade text parsing failed")
	ErrExportFailed  = errors.New("spreadsheet export failed")
)

// Upload is one screenshot file received from a client.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// TradeService defines the journal operations used by the HTTP handlers.
type TradeService interface {
	ListTrades() ([]model.Trade, error)
	GetTrade(id int64) (*model.Trade, error)
	CreateTrade(form models.TradeForm, uploads []Upload) (*model.Trade, error)
	// UpdateTrade changes only the fields present in form and appends uploads.
	UpdateTrade(id int64, form models.TradeForm, uploads []Upload) (*model.Trade, error)
	DeleteTrade(id int64) error

	AddScreenshot(tradeID int64, upload Upload) (*model.Screenshot, error)
	DeleteScreenshot(id int64) error
	ScreenshotPath(filename string) (string, error)

	// ParseClipboard runs the parser registered for source; an empty source
	// selects the configured default.
	ParseClipboard(source, text string) (*models.ParsedTrade, error)
	GetStats() (models.TradeStats, error)

	InvalidateCache()
}

// ExportService writes the journal to a spreadsheet.
type ExportService interface {
	// ExportTrades merges all trades into the workbook on disk and returns
	// the saved workbook bytes.
	ExportTrades() ([]byte, error)
}
