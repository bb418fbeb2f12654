package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type TradeHandler struct {
	tradeService services.TradeService
}

func NewTradeHandler(service services.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: service}
}

// HandleListTrades returns every trade, newest first, honouring If-None-Match.
func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	trades, err := h.tradeService.ListTrades()
	if err != nil {
		writeServiceError(w, ctxLogger, err, "List trades")
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}

	currentETag, etagErr := utils.GenerateETag(trades)
	if etagErr != nil {
		ctxLogger.Error("Failed to generate ETag for trades", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				ctxLogger.Debug("ETag match for trades", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trades); err != nil {
		ctxLogger.Error("Error encoding trades response", "error", err)
	}
}

func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid trade ID", http.StatusBadRequest)
		return
	}

	trade, err := h.tradeService.GetTrade(id)
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Load trade")
		return
	}
	if err := utils.SendJSON(w, trade, http.StatusOK); err != nil {
		ctxLogger.Error("Error encoding trade response", "tradeID", id, "error", err)
	}
}

// HandleCreateTrade stores a trade from a multipart form; files go in the
// "screenshots" field.
func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := parseForm(r); err != nil {
		ctxLogger.Warn("Failed to parse trade form", "error", err)
		utils.SendJSONError(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form, err := tradeFormFromRequest(r)
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Create trade")
		return
	}
	uploads, closeUploads, err := uploadsFromRequest(r, "screenshots")
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Create trade")
		return
	}
	defer closeUploads()

	trade, err := h.tradeService.CreateTrade(form, uploads)
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Create trade")
		return
	}

	ctxLogger.Info("Trade created", "tradeID", trade.ID, "screenshots", len(trade.Screenshots))
	utils.SendJSON(w, map[string]any{"success": true, "trade_id": trade.ID}, http.StatusCreated)
}

// HandleUpdateTrade changes only the submitted fields and appends any new
// screenshots.
func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid trade ID", http.StatusBadRequest)
		return
	}
	if err := parseForm(r); err != nil {
		ctxLogger.Warn("Failed to parse trade form", "tradeID", id, "error", err)
		utils.SendJSONError(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form, err := tradeFormFromRequest(r)
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Update trade")
		return
	}
	uploads, closeUploads, err := uploadsFromRequest(r, "screenshots")
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Update trade")
		return
	}
	defer closeUploads()

	if _, err := h.tradeService.UpdateTrade(id, form, uploads); err != nil {
		writeServiceError(w, ctxLogger, err, "Update trade")
		return
	}
	utils.SendJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid trade ID", http.StatusBadRequest)
		return
	}
	if err := h.tradeService.DeleteTrade(id); err != nil {
		writeServiceError(w, ctxLogger, err, "Delete trade")
		return
	}
	ctxLogger.Info("Trade deleted", "tradeID", id)
	utils.SendJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (h *TradeHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	stats, err := h.tradeService.GetStats()
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Compute statistics")
		return
	}
	w.Header().Set("Cache-Control", "no-cache, private")
	if err := utils.SendJSON(w, stats, http.StatusOK); err != nil {
		ctxLogger.Error("Error encoding stats response", "error", err)
	}
}
