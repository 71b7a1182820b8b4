package api

import (
	"net/http"

	"github.com/okian/scoutsync/internal/domain/export"
	"github.com/okian/scoutsync/pkg/logger"
)

// ExportHandler serves CSV downloads of the held records.
type ExportHandler struct {
	store Store
	cfg   serverConfig
}

// NewExportHandler creates a new export handler.
func NewExportHandler(store Store, cfg serverConfig) *ExportHandler {
	return &ExportHandler{store: store, cfg: cfg}
}

// HandlePit handles GET /api/export/pit.csv.
func (h *ExportHandler) HandlePit(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_pit"
	recs, err := h.store.PitAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	setCSVHeaders(w, "pit_scouting.csv")
	if err := export.WritePit(w, recs); err != nil {
		h.cfg.log.Error(r.Context(), "pit export failed", logger.Error(err))
	}
}

// HandleMatches handles GET /api/export/match.csv.
func (h *ExportHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_match"
	recs, err := h.store.Matches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	setCSVHeaders(w, "match_scouting.csv")
	if err := export.WriteMatches(w, recs); err != nil {
		h.cfg.log.Error(r.Context(), "match export failed", logger.Error(err))
	}
}

func setCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
}
