package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
)

// APIHandler serves the REST side: catalog inspection and result exports.
type APIHandler struct {
	service *app.GameService
	logger  *slog.Logger
}

func NewAPIHandler(service *app.GameService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{service: service, logger: logger}
}

func (h *APIHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CatalogCounts())
}

func (h *APIHandler) ReloadTasks(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.ReloadCatalog(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"total":      counts.Total,
		"categories": counts.Categories,
	})
}

func (h *APIHandler) RoomResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Results(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *APIHandler) PlayerCSV(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCode(chi.URLParam(r, "code"))
	playerID := chi.URLParam(r, "id")
	report, err := h.service.PlayerResults(r.Context(), code, playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := app.WritePlayerCSV(&buf, report); err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, fmt.Sprintf("%s_%s.csv", code, playerID), buf.Bytes())
}

func (h *APIHandler) RoomCSV(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCode(chi.URLParam(r, "code"))
	report, err := h.service.Results(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := app.WriteRoomCSV(&buf, report); err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, code+"_summary.csv", buf.Bytes())
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrResultsNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": domain.ErrRoomNotFound.Error()})
	case errors.Is(err, domain.ErrUnknownPlayer):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("api request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
