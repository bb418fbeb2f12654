package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

// multipartMemory is how much of a multipart body is kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s'", raw)
	}
	return id, nil
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// tradeFormFromRequest reads the trade fields present in the parsed form.
func tradeFormFromRequest(r *http.Request) (models.TradeForm, error) {
	var form models.TradeForm

	text := func(key string) *string {
		if vals, ok := r.PostForm[key]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	number := func(key string) (*float64, error) {
		raw := text(key)
		if raw == nil {
			return nil, nil
		}
		v, err := validation.ValidateFloatString(*raw, key)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	form.Instrument = text("instrument")
	form.Direction = text("direction")
	form.Duration = text("duration")
	form.Comments = text("comments")

	numbers := []struct {
		key string
		dst **float64
	}{
		{"entry", &form.Entry},
		{"exit", &form.Exit},
		{"stop_loss", &form.StopLoss},
		{"take_profit", &form.TakeProfit},
		{"size", &form.Size},
		{"risk", &form.Risk},
		{"reward", &form.Reward},
		{"profit_loss", &form.ProfitLoss},
	}
	for _, n := range numbers {
		v, err := number(n.key)
		if err != nil {
			return form, err
		}
		*n.dst = v
	}
	return form, nil
}

// uploadsFromRequest opens every named file under field. The returned func
// closes them.
func uploadsFromRequest(r *http.Request, field string) ([]services.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}

	var uploads []services.Upload
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to open uploaded file '%s': %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Size: fh.Size, Content: f})
	}
	return uploads, closeAll, nil
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, ctxLogger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, model.ErrTradeNotFound):
		utils.SendJSONError(w, "Trade not found", http.StatusNotFound)
	case errors.Is(err, model.ErrScreenshotNotFound):
		utils.SendJSONError(w, "Screenshot not found", http.StatusNotFound)
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, parsers.ErrUnknownSource),
		errors.Is(err, services.ErrParsingFailed):
		ctxLogger.Warn("Rejected request", "action", action, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		ctxLogger.Error("Request failed", "action", action, "error", err)
		utils.SendJSONError(w, "Failed to "+strings.ToLower(action), http.StatusInternalServerError)
	}
}
