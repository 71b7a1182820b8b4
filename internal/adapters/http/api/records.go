package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
)

// RecordsHandler serves pit and match reads, single writes and bulk sync.
type RecordsHandler struct {
	store Store
	cfg   serverConfig
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(store Store, cfg serverConfig) *RecordsHandler {
	return &RecordsHandler{store: store, cfg: cfg}
}

type pitWriteResponse struct {
	OK      bool `json:"ok"`
	Applied bool `json:"applied"`
}

type matchWriteResponse struct {
	OK       bool `json:"ok"`
	Inserted bool `json:"inserted"`
}

type syncRequest struct {
	Items json.RawMessage `json:"items"`
}

type syncResponse struct {
	OK     bool `json:"ok"`
	Synced int  `json:"synced"`
}

// HandleGetPit handles GET /api/pit-data. The body maps team number to record.
func (h *RecordsHandler) HandleGetPit(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pit"
	recs, err := h.store.PitAll(r.Context())
	if err != nil {
		h.cfg.log.Error(r.Context(), "read pit failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	out := make(map[string]model.PitRecord, len(recs))
	for _, rec := range recs {
		out[strconv.Itoa(rec.TeamNumber)] = rec
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePostPit handles POST /api/pit-data.
func (h *RecordsHandler) HandlePostPit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pit"
	var rec model.PitRecord
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if rec.TeamNumber == 0 {
		writeMessage(w, http.StatusBadRequest, "bad_request", "Missing teamNumber")
		return
	}
	applied, err := h.store.UpsertPit(r.Context(), rec, deviceID(r))
	if err != nil {
		h.writeStoreError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pitWriteResponse{OK: true, Applied: applied})
}

// HandleGetMatches handles GET /api/match-data, newest first.
func (h *RecordsHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	recs, err := h.store.Matches(r.Context())
	if err != nil {
		h.cfg.log.Error(r.Context(), "read match failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandlePostMatch handles POST /api/match-data.
func (h *RecordsHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	var rec model.MatchRecord
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if rec.ID == "" || rec.MatchNumber == 0 || rec.TeamNumber == 0 {
		writeMessage(w, http.StatusBadRequest, "bad_request", "Missing required match fields")
		return
	}
	inserted, err := h.store.InsertMatch(r.Context(), rec, deviceID(r))
	if err != nil {
		h.writeStoreError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, matchWriteResponse{OK: true, Inserted: inserted})
}

// HandleSync handles POST /api/sync. Every item is applied in one
// transaction or none is.
func (h *RecordsHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	ctx := r.Context()

	var req syncRequest
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if raw := bytes.TrimSpace(req.Items); len(raw) == 0 || raw[0] != '[' {
		writeMessage(w, http.StatusBadRequest, "bad_request", "Expected items array")
		return
	}
	var items []model.SyncItem
	if err := json.Unmarshal(req.Items, &items); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	device := deviceID(r)
	n, err := h.store.BulkSync(ctx, items, device)
	if err != nil {
		h.cfg.log.Error(ctx, "bulk sync failed",
			logger.String("device", device), logger.Int("items", len(items)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	h.cfg.log.Debug(ctx, "bulk sync applied", logger.String("device", device), logger.Int("items", n))
	writeJSON(w, http.StatusOK, syncResponse{OK: true, Synced: n})
}

func (h *RecordsHandler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, repository.ErrInvalidRecord) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.cfg.log.Error(r.Context(), "store write failed", logger.String("op", op), logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
}
