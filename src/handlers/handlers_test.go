package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

const polishPaste = `Szczegóły pozycji
EURUSD
Typ
Buy
Wolumen
1
Cena otwarcia
1,1000
Stop Loss
1,0950
Take Profit
1,1150
Zysk netto
50,00
Czas otwarcia
01.03.2024
09:00
Czas zamknięcia
01.03.2024
09:45`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	tradeService := services.NewTradeService(db, processors.NewStatsProcessor(),
		cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval),
		filepath.Join(t.TempDir(), "uploads"), 1<<20, "xstation5")
	exportService := services.NewExportService(db, filepath.Join(t.TempDir(), "exports", "trades_export.xlsx"))

	trades := NewTradeHandler(tradeService)
	shots := NewScreenshotHandler(tradeService)
	parse := NewParseHandler(tradeService)
	export := NewExportHandler(exportService)

	r := chi.NewRouter()
	r.Use(ContextualLoggerMiddleware)
	r.Get("/api/trades", trades.HandleListTrades)
	r.Post("/api/trades", trades.HandleCreateTrade)
	r.Get("/api/trades/{id}", trades.HandleGetTrade)
	r.Put("/api/trades/{id}", trades.HandleUpdateTrade)
	r.Delete("/api/trades/{id}", trades.HandleDeleteTrade)
	r.Post("/api/trades/{id}/screenshots", shots.HandleAddScreenshot)
	r.Get("/api/screenshots/{screenshot}", shots.HandleGetScreenshot)
	r.Delete("/api/screenshots/{screenshot}", shots.HandleDeleteScreenshot)
	r.Get("/api/export/excel", export.HandleExportExcel)
	r.Post("/api/parse-trade", parse.HandleParseTrade)
	r.Get("/api/stats", trades.HandleGetStats)
	return r
}

// multipartBody builds a form with fields and files under fileField.
func multipartBody(t *testing.T, fields map[string]string, fileField string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createTrade(t *testing.T, h http.Handler, fields map[string]string, files map[string][]byte) int64 {
	t.Helper()
	body, ct := multipartBody(t, fields, "screenshots", files)
	req := httptest.NewRequest(http.MethodPost, "/api/trades", body)
	req.Header.Set("Content-Type", ct)
	rr := do(t, h, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Success bool  `json:"success"`
		TradeID int64 `json:"trade_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.TradeID
}

func getTrade(t *testing.T, h http.Handler, id int64) model.Trade {
	t.Helper()
	rr := do(t, h, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/trades/%d", id), nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var trade model.Trade
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trade))
	return trade
}

func TestCreateGetUpdateDeleteTrade(t *testing.T) {
	h := newTestRouter(t)

	id := createTrade(t, h, map[string]string{
		"instrument":  "EURUSD",
		"direction":   "long",
		"entry":       "1.1",
		"exit":        "1.105",
		"stop_loss":   "1.095",
		"take_profit": "1.115",
		"size":        "1",
		"risk":        "50",
		"reward":      "150",
		"profit_loss": "50",
		"duration":    "45 min",
		"comments":    "textbook",
	}, map[string][]byte{"chart.png": pngBytes})

	trade := getTrade(t, h, id)
	assert.Equal(t, "EURUSD", trade.Instrument)
	assert.Equal(t, 150.0, trade.Reward)
	require.Len(t, trade.Screenshots, 1)

	// Update only the comments; everything else is kept.
	form := url.Values{"comments": {"revised"}}
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/trades/%d", id), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := do(t, h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	trade = getTrade(t, h, id)
	assert.Equal(t, "revised", trade.Comments)
	assert.Equal(t, 1.105, trade.Exit)
	assert.Equal(t, "long", trade.Direction)

	rr = do(t, h, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/trades/%d", id), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = do(t, h, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/trades/%d", id), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Trade not found"}`, rr.Body.String())
}

func TestCreateTradeEmptyNumbersDefaultToZero(t *testing.T) {
	h := newTestRouter(t)

	id := createTrade(t, h, map[string]string{"instrument": "GOLD", "entry": ""}, nil)

	trade := getTrade(t, h, id)
	assert.Equal(t, 0.0, trade.Entry)
	assert.Equal(t, 0.0, trade.ProfitLoss)
	assert.Empty(t, trade.Screenshots)
}

func TestCreateTradeRejectsBadInput(t *testing.T) {
	h := newTestRouter(t)

	body, ct := multipartBody(t, map[string]string{"entry": "abc"}, "screenshots", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/trades", body)
	req.Header.Set("Content-Type", ct)
	rr := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "entry")

	body, ct = multipartBody(t, map[string]string{"instrument": "GOLD"}, "screenshots",
		map[string][]byte{"evil.png": []byte("<html><script>alert(1)</script></html>")})
	req = httptest.NewRequest(http.MethodPost, "/api/trades", body)
	req.Header.Set("Content-Type", ct)
	rr = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestInvalidTradeID(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/api/trades/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/trades/77", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListTradesETag(t *testing.T) {
	h := newTestRouter(t)
	createTrade(t, h, map[string]string{"instrument": "US500"}, nil)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var trades []model.Trade
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trades))
	require.Len(t, trades, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req.Header.Set("If-None-Match", `"stale", `+etag)
	rr = do(t, h, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())

	createTrade(t, h, map[string]string{"instrument": "DE40"}, nil)
	req = httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req.Header.Set("If-None-Match", etag)
	rr = do(t, h, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, etag, rr.Header().Get("ETag"))
}

func TestScreenshotEndpoints(t *testing.T) {
	h := newTestRouter(t)
	id := createTrade(t, h, map[string]string{"instrument": "BTCUSD"}, nil)

	body, ct := multipartBody(t, nil, "screenshot", map[string][]byte{"entry shot.png": pngBytes})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/trades/%d/screenshots", id), body)
	req.Header.Set("Content-Type", ct)
	rr := do(t, h, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var shot model.Screenshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shot))
	assert.Equal(t, id, shot.TradeID)
	assert.True(t, strings.HasSuffix(shot.Filename, "_entry_shot.png"))

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/api/screenshots/"+shot.Filename, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, pngBytes, rr.Body.Bytes())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	rr = do(t, h, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/screenshots/%d", shot.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/api/screenshots/"+shot.Filename, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/screenshots/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddScreenshotWithoutFile(t *testing.T) {
	h := newTestRouter(t)
	id := createTrade(t, h, map[string]string{"instrument": "GOLD"}, nil)

	body, ct := multipartBody(t, map[string]string{"note": "x"}, "screenshot", nil)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/trades/%d/screenshots", id), body)
	req.Header.Set("Content-Type", ct)
	rr := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"No screenshot provided"}`, rr.Body.String())
}

func TestParseTrade(t *testing.T) {
	h := newTestRouter(t)

	payload, err := json.Marshal(map[string]string{"clipboard_text": polishPaste})
	require.NoError(t, err)
	rr := do(t, h, httptest.NewRequest(http.MethodPost, "/api/parse-trade", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Trade models.ParsedTrade `json:"trade"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "EURUSD", resp.Trade.Instrument)
	assert.Equal(t, "long", resp.Trade.Direction)
	require.NotNil(t, resp.Trade.Duration)
	assert.Equal(t, "45 min", *resp.Trade.Duration)
	require.NotNil(t, resp.Trade.Risk)
	assert.Equal(t, 50.0, *resp.Trade.Risk)
	require.NotNil(t, resp.Trade.Reward)
	assert.Equal(t, 150.0, *resp.Trade.Reward)
	assert.Nil(t, resp.Trade.Exit)
}

func TestParseTradeRejectsMissingText(t *testing.T) {
	h := newTestRouter(t)

	for _, body := range []string{``, `not json`, `{}`, `{"clipboard_text": ""}`} {
		rr := do(t, h, httptest.NewRequest(http.MethodPost, "/api/parse-trade", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.JSONEq(t, `{"error":"No clipboard_text provided"}`, rr.Body.String(), body)
	}

	rr := do(t, h, httptest.NewRequest(http.MethodPost, "/api/parse-trade",
		strings.NewReader(`{"clipboard_text": "EURUSD", "source": "mt5"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown trade source")
}

func TestParseTradeUnrecognisedText(t *testing.T) {
	h := newTestRouter(t)

	for _, text := range []string{"hello world", "   ", "\n\n"} {
		payload, err := json.Marshal(map[string]string{"clipboard_text": text})
		require.NoError(t, err)
		rr := do(t, h, httptest.NewRequest(http.MethodPost, "/api/parse-trade", bytes.NewReader(payload)))
		require.Equal(t, http.StatusOK, rr.Code, text)
		assert.JSONEq(t, `{"trade":{"instrument":""}}`, rr.Body.String(), text)
	}
}

type panickingParser struct{}

func (panickingParser) Parse(string) *models.ParsedTrade {
	panic("index out of range [3] with length 3")
}

func TestParseTradePanicIsClientError(t *testing.T) {
	parsers.Register("broken-platform", func() parsers.ClipboardParser { return panickingParser{} })
	h := newTestRouter(t)

	rr := do(t, h, httptest.NewRequest(http.MethodPost, "/api/parse-trade",
		strings.NewReader(`{"clipboard_text": "EURUSD", "source": "broken-platform"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "index out of range [3] with length 3")
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var empty models.TradeStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.Equal(t, 0, empty.TotalTrades)

	createTrade(t, h, map[string]string{"instrument": "GOLD", "direction": "long", "profit_loss": "30"}, nil)
	createTrade(t, h, map[string]string{"instrument": "GOLD", "direction": "short", "profit_loss": "-10"}, nil)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var stats models.TradeStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 20.0, stats.TotalPL)
	assert.Equal(t, 1, stats.LongTrades)
	assert.Equal(t, 1, stats.ShortTrades)
}

func TestExportExcel(t *testing.T) {
	h := newTestRouter(t)
	createTrade(t, h, map[string]string{"instrument": "GOLD"}, nil)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/api/export/excel", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "trades_export.xlsx")
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
}

func TestContextualLoggerMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	h := ContextualLoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestIDFromContext(r.Context())
	}))

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}
