package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
)

// AdminHandler serves PIN-guarded edits. Edits bypass last-writer-wins.
type AdminHandler struct {
	store Store
	cfg   serverConfig
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store Store, cfg serverConfig) *AdminHandler {
	return &AdminHandler{store: store, cfg: cfg}
}

// HandlePutPit handles PUT /api/admin/pit-data/{team}.
func (h *AdminHandler) HandlePutPit(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_put_pit"
	team, err := strconv.Atoi(mux.Vars(r)["team"])
	if err != nil || team <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var rec model.PitRecord
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec.TeamNumber = team
	h.finish(w, r, op, h.store.ReplacePit(r.Context(), rec, deviceID(r)))
}

// HandleDeletePit handles DELETE /api/admin/pit-data/{team}.
func (h *AdminHandler) HandleDeletePit(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_delete_pit"
	team, err := strconv.Atoi(mux.Vars(r)["team"])
	if err != nil || team <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	h.finish(w, r, op, h.store.DeletePit(r.Context(), team))
}

// HandlePutMatch handles PUT /api/admin/match-data/{id}.
func (h *AdminHandler) HandlePutMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_put_match"
	var rec model.MatchRecord
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec.ID = mux.Vars(r)["id"]
	h.finish(w, r, op, h.store.ReplaceMatch(r.Context(), rec, deviceID(r)))
}

// HandleDeleteMatch handles DELETE /api/admin/match-data/{id}.
func (h *AdminHandler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_delete_match"
	h.finish(w, r, op, h.store.DeleteMatch(r.Context(), mux.Vars(r)["id"]))
}

// HandleClearAll handles DELETE /api/admin/all-data.
func (h *AdminHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_clear_all"
	err := h.store.ClearAll(r.Context())
	if err == nil {
		h.cfg.log.Warn(r.Context(), "all scouting data cleared", logger.String("device", deviceID(r)))
	}
	h.finish(w, r, op, err)
}

func (h *AdminHandler) finish(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, repository.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		h.cfg.log.Error(r.Context(), "admin operation failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
