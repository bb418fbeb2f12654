package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/xuri/excelize/v2"
)

const (
	ExportSheetName      = "Trade Journal"
	exportTimeLayout     = "2006-01-02 15:04:05"
	maxExportColumnWidth = 50
)

var exportHeaders = []string{
	"ID", "Timestamp", "Instrument", "Direction", "Entry", "Exit", "Stop Loss",
	"Take Profit", "Size", "Risk", "Reward", "P/L", "Duration", "comments",
}

type exportServiceImpl struct {
	db         *sql.DB
	exportPath string

	mu sync.Mutex // serializes read-merge-save of the workbook
}

func NewExportService(db *sql.DB, exportPath string) ExportService {
	return &exportServiceImpl{db: db, exportPath: exportPath}
}

func (s *exportServiceImpl) ExportTrades() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades, err := model.ListTrades(s.db)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.exportPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: could not create export folder: %v", ErrExportFailed, err)
	}

	f, existing, err := s.openWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read sheet: %v", ErrExportFailed, err)
	}
	existingIDs := collectIDs(rows)
	nextRow := len(rows) + 1

	added := 0
	// Oldest first so appended rows keep chronological order.
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		if existingIDs[t.ID] {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, nextRow)
		values := []interface{}{
			t.ID,
			t.Timestamp.Format(exportTimeLayout),
			validation.SanitizeForFormulaInjection(t.Instrument),
			validation.SanitizeForFormulaInjection(t.Direction),
			t.Entry, t.Exit, t.StopLoss, t.TakeProfit, t.Size, t.Risk, t.Reward, t.ProfitLoss,
			validation.SanitizeForFormulaInjection(t.Duration),
			validation.SanitizeForFormulaInjection(t.Comments),
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("%w: could not write row %d: %v", ErrExportFailed, nextRow, err)
		}
		nextRow++
		added++
	}

	if err := s.fitColumns(f); err != nil {
		return nil, err
	}

	if err := f.SaveAs(s.exportPath); err != nil {
		return nil, fmt.Errorf("%w: could not save workbook: %v", ErrExportFailed, err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: could not serialize workbook: %v", ErrExportFailed, err)
	}

	logger.L.Info("Trades exported", "path", s.exportPath, "existingWorkbook", existing, "addedRows", added)
	return buf.Bytes(), nil
}

// openWorkbook opens the workbook at exportPath, or creates a new one, and
// makes sure it has a headed journal sheet.
func (s *exportServiceImpl) openWorkbook() (*excelize.File, bool, error) {
	if _, err := os.Stat(s.exportPath); err == nil {
		f, err := excelize.OpenFile(s.exportPath)
		if err != nil {
			return nil, false, fmt.Errorf("%w: could not open existing workbook: %v", ErrExportFailed, err)
		}
		idx, err := f.GetSheetIndex(ExportSheetName)
		if err != nil || idx == -1 {
			if _, err := f.NewSheet(ExportSheetName); err != nil {
				f.Close()
				return nil, false, fmt.Errorf("%w: could not add sheet: %v", ErrExportFailed, err)
			}
			if err := writeHeader(f); err != nil {
				f.Close()
				return nil, false, err
			}
		}
		return f, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("%w: could not stat workbook: %v", ErrExportFailed, err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%w: could not name sheet: %v", ErrExportFailed, err)
	}
	if err := writeHeader(f); err != nil {
		f.Close()
		return nil, false, err
	}
	return f, false, nil
}

func writeHeader(f *excelize.File) error {
	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("%w: could not write header: %v", ErrExportFailed, err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("%w: could not create header style: %v", ErrExportFailed, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(ExportSheetName, "A1", last, style); err != nil {
		return fmt.Errorf("%w: could not style header: %v", ErrExportFailed, err)
	}
	return nil
}

// collectIDs reads the values below the "ID" header cell.
func collectIDs(rows [][]string) map[int64]bool {
	ids := map[int64]bool{}
	if len(rows) == 0 {
		return ids
	}
	col := -1
	for i, v := range rows[0] {
		if v == "ID" {
			col = i
			break
		}
	}
	if col == -1 {
		return ids
	}
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if id, err := strconv.ParseInt(strings.TrimSpace(row[col]), 10, 64); err == nil {
			ids[id] = true
		}
	}
	return ids
}

// fitColumns sets each column to its longest value plus two, capped at 50.
func (s *exportServiceImpl) fitColumns(f *excelize.File) error {
	rows, err := f.GetRows(ExportSheetName)
	if err != nil {
		return fmt.Errorf("%w: could not read sheet: %v", ErrExportFailed, err)
	}
	widths := map[int]int{}
	for _, row := range rows {
		for i, v := range row {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExportFailed, err)
		}
		if err := f.SetColWidth(ExportSheetName, name, name, float64(min(w+2, maxExportColumnWidth))); err != nil {
			return fmt.Errorf("%w: could not set column width: %v", ErrExportFailed, err)
		}
	}
	return nil
}
