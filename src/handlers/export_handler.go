package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

const (
	exportFilename  = "trades_export.xlsx"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ExportHandler struct {
	exportService services.ExportService
}

func NewExportHandler(service services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: service}
}

func (h *ExportHandler) HandleExportExcel(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	data, err := h.exportService.ExportTrades()
	if err != nil {
		ctxLogger.Error("Excel export failed", "error", err)
		utils.SendJSONError(w, "Failed to export trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		ctxLogger.Error("Error writing export response", "error", err)
	}
}
