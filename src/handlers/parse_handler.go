package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

const maxClipboardBodyBytes = 1 << 20

type ParseHandler struct {
	tradeService services.TradeService
}

func NewParseHandler(service services.TradeService) *ParseHandler {
	return &ParseHandler{tradeService: service}
}

type parseTradeRequest struct {
	ClipboardText string `json:"clipboard_text"`
	Source        string `json:"source"`
}

// HandleParseTrade turns pasted platform text into trade fields without
// storing anything. A body that is not valid JSON counts as empty.
func (h *ParseHandler) HandleParseTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req parseTradeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxClipboardBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxLogger.Debug("Unreadable parse-trade body treated as empty", "error", err)
		req = parseTradeRequest{}
	}

	if req.ClipboardText == "" {
		utils.SendJSONError(w, "No clipboard_text provided", http.StatusBadRequest)
		return
	}

	trade, err := h.tradeService.ParseClipboard(req.Source, req.ClipboardText)
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Parse trade")
		return
	}

	ctxLogger.Info("Parsed trade text", "source", req.Source, "instrument", trade.Instrument, "direction", trade.Direction)
	utils.SendJSON(w, map[string]any{"trade": trade}, http.StatusOK)
}
