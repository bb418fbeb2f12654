package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/security/validation"
)

const (
	ckAllTrades            = "trades_all"
	ckTradeStats           = "trades_stats"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type tradeServiceImpl struct {
	db             *sql.DB
	statsProcessor processors.StatsProcessor
	reportCache    *cache.Cache
	uploadDir      string
	maxUploadSize  int64
	defaultSource  string

	// cacheMu orders cache fills against invalidation: a fill computed before
	// the latest InvalidateCache carries an old generation and is dropped.
	cacheMu         sync.Mutex
	cacheGeneration uint64
}

func NewTradeService(
	db *sql.DB,
	statsProcessor processors.StatsProcessor,
	reportCache *cache.Cache,
	uploadDir string,
	maxUploadSize int64,
	defaultSource string,
) TradeService {
	return &tradeServiceImpl{
		db:             db,
		statsProcessor: statsProcessor,
		reportCache:    reportCache,
		uploadDir:      uploadDir,
		maxUploadSize:  maxUploadSize,
		defaultSource:  defaultSource,
	}
}

func (s *tradeServiceImpl) ListTrades() ([]model.Trade, error) {
	if cached, found := s.reportCache.Get(ckAllTrades); found {
		return cached.([]model.Trade), nil
	}
	gen := s.currentGeneration()
	trades, err := model.ListTrades(s.db)
	if err != nil {
		return nil, err
	}
	s.setIfCurrent(ckAllTrades, trades, gen)
	return trades, nil
}

func (s *tradeServiceImpl) GetTrade(id int64) (*model.Trade, error) {
	return model.GetTradeByID(s.db, id)
}

func (s *tradeServiceImpl) CreateTrade(form models.TradeForm, uploads []Upload) (*model.Trade, error) {
	trade := &model.Trade{}
	if err := applyForm(trade, form); err != nil {
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	if err := model.CreateTrade(s.db, trade); err != nil {
		return nil, err
	}
	defer s.InvalidateCache()
	logger.L.Info("Trade created", "tradeID", trade.ID, "instrument", trade.Instrument)

	for _, u := range uploads {
		shot, err := s.storeScreenshot(trade.ID, u)
		if err != nil {
			return trade, err
		}
		trade.Screenshots = append(trade.Screenshots, *shot)
	}
	return trade, nil
}

func (s *tradeServiceImpl) UpdateTrade(id int64, form models.TradeForm, uploads []Upload) (*model.Trade, error) {
	trade, err := model.GetTradeByID(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := applyForm(trade, form); err != nil {
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	if err := model.UpdateTrade(s.db, trade); err != nil {
		return nil, err
	}
	defer s.InvalidateCache()
	logger.L.Info("Trade updated", "tradeID", id, "newScreenshots", len(uploads))

	for _, u := range uploads {
		shot, err := s.storeScreenshot(trade.ID, u)
		if err != nil {
			return trade, err
		}
		trade.Screenshots = append(trade.Screenshots, *shot)
	}
	return trade, nil
}

func (s *tradeServiceImpl) DeleteTrade(id int64) error {
	trade, err := model.GetTradeByID(s.db, id)
	if err != nil {
		return err
	}
	for _, shot := range trade.Screenshots {
		removeScreenshotFile(shot)
	}
	if err := model.DeleteTrade(s.db, id); err != nil {
		return err
	}
	s.InvalidateCache()
	logger.L.Info("Trade deleted", "tradeID", id, "screenshots", len(trade.Screenshots))
	return nil
}

func (s *tradeServiceImpl) AddScreenshot(tradeID int64, upload Upload) (*model.Screenshot, error) {
	if _, err := model.GetTradeByID(s.db, tradeID); err != nil {
		return nil, err
	}
	if err := s.validateUploads([]Upload{upload}); err != nil {
		return nil, err
	}
	shot, err := s.storeScreenshot(tradeID, upload)
	if err != nil {
		return nil, err
	}
	s.InvalidateCache()
	return shot, nil
}

func (s *tradeServiceImpl) DeleteScreenshot(id int64) error {
	shot, err := model.GetScreenshotByID(s.db, id)
	if err != nil {
		return err
	}
	removeScreenshotFile(*shot)
	if err := model.DeleteScreenshot(s.db, id); err != nil {
		return err
	}
	s.InvalidateCache()
	logger.L.Info("Screenshot deleted", "screenshotID", id, "tradeID", shot.TradeID)
	return nil
}

// ScreenshotPath resolves a stored screenshot name to its file in the upload
// folder. Names with directory components are rejected.
func (s *tradeServiceImpl) ScreenshotPath(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || filepath.Base(filename) != filename {
		return "", model.ErrScreenshotNotFound
	}
	path := filepath.Join(s.uploadDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", model.ErrScreenshotNotFound
		}
		return "", fmt.Errorf("failed to stat screenshot %s: %w", filename, err)
	}
	if info.IsDir() {
		return "", model.ErrScreenshotNotFound
	}
	return path, nil
}

func (s *tradeServiceImpl) ParseClipboard(source, text string) (trade *models.ParsedTrade, err error) {
	if strings.TrimSpace(source) == "" {
		source = s.defaultSource
	}
	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("Recovered from panic while parsing trade text", "source", source, "panic", r)
			trade = nil
			err = fmt.Errorf("%w: %v", ErrParsingFailed, r)
		}
	}()
	return parser.Parse(text), nil
}

func (s *tradeServiceImpl) GetStats() (models.TradeStats, error) {
	if cached, found := s.reportCache.Get(ckTradeStats); found {
		return cached.(models.TradeStats), nil
	}
	gen := s.currentGeneration()
	trades, err := s.ListTrades()
	if err != nil {
		return models.TradeStats{}, err
	}
	stats := s.statsProcessor.Process(trades)
	s.setIfCurrent(ckTradeStats, stats, gen)
	return stats, nil
}

func (s *tradeServiceImpl) InvalidateCache() {
	s.cacheMu.Lock()
	s.cacheGeneration++
	s.reportCache.Delete(ckAllTrades)
	s.reportCache.Delete(ckTradeStats)
	s.cacheMu.Unlock()
	logger.L.Debug("Trade cache invalidated")
}

func (s *tradeServiceImpl) currentGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGeneration
}

// setIfCurrent caches value unless the cache was invalidated after gen was read.
func (s *tradeServiceImpl) setIfCurrent(key string, value any, gen uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGeneration != gen {
		logger.L.Debug("Dropped stale cache fill", "key", key)
		return
	}
	s.reportCache.Set(key, value, cache.DefaultExpiration)
}

func (s *tradeServiceImpl) validateUploads(uploads []Upload) error {
	for _, u := range uploads {
		if u.Size > s.maxUploadSize {
			return fmt.Errorf("%w: screenshot '%s' exceeds the maximum size of %d bytes", validation.ErrValidationFailed, u.Filename, s.maxUploadSize)
		}
		if _, err := validation.ValidateImageContent(u.Content); err != nil {
			return fmt.Errorf("screenshot '%s': %w", u.Filename, err)
		}
	}
	return nil
}

// storeScreenshot writes the upload as <uuid hex>_<secure name> and records it.
func (s *tradeServiceImpl) storeScreenshot(tradeID int64, u Upload) (*model.Screenshot, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + validation.SecureFilename(u.Filename)
	path := filepath.Join(s.uploadDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create screenshot file: %w", err)
	}
	_, copyErr := io.Copy(f, io.LimitReader(u.Content, s.maxUploadSize))
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write screenshot file: %w", errors.Join(copyErr, closeErr))
	}

	shot := &model.Screenshot{Filename: name, Filepath: path, TradeID: tradeID}
	if err := model.CreateScreenshot(s.db, shot); err != nil {
		os.Remove(path)
		return nil, err
	}
	logger.L.Info("Screenshot stored", "tradeID", tradeID, "filename", name)
	return shot, nil
}

func removeScreenshotFile(shot model.Screenshot) {
	if err := os.Remove(shot.Filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.L.Warn("Failed to remove screenshot file", "path", shot.Filepath, "error", err)
	}
}

// applyForm copies the fields present in form onto t, sanitizing text.
func applyForm(t *model.Trade, form models.TradeForm) error {
	if form.Instrument != nil {
		v := cleanText(*form.Instrument)
		if err := validation.ValidateStringMaxLength(v, validation.MaxInstrumentLength, "instrument"); err != nil {
			return err
		}
		t.Instrument = v
	}
	if form.Direction != nil {
		v, err := validation.ValidateDirection(*form.Direction)
		if err != nil {
			return err
		}
		t.Direction = v
	}
	if form.Duration != nil {
		v := cleanText(*form.Duration)
		if err := validation.ValidateStringMaxLength(v, validation.MaxDurationLength, "duration"); err != nil {
			return err
		}
		t.Duration = v
	}
	if form.Comments != nil {
		v := validation.SanitizeText(validation.StripUnprintable(*form.Comments))
		if err := validation.ValidateStringMaxLength(v, validation.MaxCommentsLength, "comments"); err != nil {
			return err
		}
		t.Comments = v
	}

	setFloat(&t.Entry, form.Entry)
	setFloat(&t.Exit, form.Exit)
	setFloat(&t.StopLoss, form.StopLoss)
	setFloat(&t.TakeProfit, form.TakeProfit)
	setFloat(&t.Size, form.Size)
	setFloat(&t.Risk, form.Risk)
	setFloat(&t.Reward, form.Reward)
	setFloat(&t.ProfitLoss, form.ProfitLoss)
	return nil
}

func cleanText(s string) string {
	return strings.TrimSpace(validation.SanitizeText(validation.StripUnprintable(s)))
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
