package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ScreenshotHandler struct {
	tradeService services.TradeService
}

func NewScreenshotHandler(service services.TradeService) *ScreenshotHandler {
	return &ScreenshotHandler{tradeService: service}
}

// HandleAddScreenshot attaches the file in the "screenshot" field to a trade.
func (h *ScreenshotHandler) HandleAddScreenshot(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	tradeID, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid trade ID", http.StatusBadRequest)
		return
	}
	if err := parseForm(r); err != nil {
		ctxLogger.Warn("Failed to parse screenshot upload", "tradeID", tradeID, "error", err)
		utils.SendJSONError(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	uploads, closeUploads, err := uploadsFromRequest(r, "screenshot")
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Upload screenshot")
		return
	}
	defer closeUploads()
	if len(uploads) == 0 {
		utils.SendJSONError(w, "No screenshot provided", http.StatusBadRequest)
		return
	}

	shot, err := h.tradeService.AddScreenshot(tradeID, uploads[0])
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Upload screenshot")
		return
	}
	ctxLogger.Info("Screenshot added", "tradeID", tradeID, "screenshotID", shot.ID)
	utils.SendJSON(w, shot, http.StatusCreated)
}

// GET and DELETE share the {screenshot} segment: a stored file name for GET,
// a numeric ID for DELETE.
func (h *ScreenshotHandler) HandleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	path, err := h.tradeService.ScreenshotPath(chi.URLParam(r, "screenshot"))
	if err != nil {
		writeServiceError(w, ctxLogger, err, "Load screenshot")
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}

func (h *ScreenshotHandler) HandleDeleteScreenshot(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	id, err := parseIDParam(r, "screenshot")
	if err != nil {
		utils.SendJSONError(w, "Invalid screenshot ID", http.StatusBadRequest)
		return
	}
	if err := h.tradeService.DeleteScreenshot(id); err != nil {
		writeServiceError(w, ctxLogger, err, "Delete screenshot")
		return
	}
	utils.SendJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
