package api

import (
	"net/http"

	"github.com/okian/scoutsync/internal/domain/pin"
	"github.com/okian/scoutsync/pkg/logger"
)

// PinHeader carries the admin PIN on guarded routes.
const PinHeader = "X-Pin"

// pinSettingKey is the app_settings key holding the PIN hash.
const pinSettingKey = "pin_hash"

// PinHandler serves the shared admin PIN routes and guards admin routes.
type PinHandler struct {
	store Store
	cfg   serverConfig
}

// NewPinHandler creates a new PIN handler.
func NewPinHandler(store Store, cfg serverConfig) *PinHandler {
	return &PinHandler{store: store, cfg: cfg}
}

type pinRequest struct {
	Pin any `json:"pin"`
}

type pinStatusResponse struct {
	IsSet bool `json:"isSet"`
}

type pinVerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// HandleStatus handles GET /api/pin/status.
func (h *PinHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.pin_status"
	_, ok, err := h.store.Setting(r.Context(), pinSettingKey)
	if err != nil {
		h.cfg.log.Error(r.Context(), "read pin failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, pinStatusResponse{IsSet: ok})
}

// HandleSetup handles POST /api/pin/setup. The PIN can be set only once.
func (h *PinHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	const op = "api.pin_setup"
	ctx := r.Context()

	var req pinRequest
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if _, ok, err := h.store.Setting(ctx, pinSettingKey); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	} else if ok {
		writeMessage(w, http.StatusConflict, "pin_already_set", "PIN already set")
		return
	}

	p, _ := req.Pin.(string)
	if err := pin.Validate(p); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid_pin", err.Error())
		return
	}
	stored, err := h.store.SetSettingIfAbsent(ctx, pinSettingKey, pin.Hash(p))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	if !stored {
		writeMessage(w, http.StatusConflict, "pin_already_set", "PIN already set")
		return
	}
	h.cfg.log.Info(ctx, "admin pin configured", logger.String("device", deviceID(r)))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleVerify handles POST /api/pin/verify.
func (h *PinHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	const op = "api.pin_verify"
	var req pinRequest
	if err := decodeJSON(w, r, h.cfg.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stored, ok, err := h.store.Setting(r.Context(), pinSettingKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, pinVerifyResponse{Valid: false, Reason: "no_pin"})
		return
	}
	p, isString := req.Pin.(string)
	if !isString || p == "" {
		writeJSON(w, http.StatusOK, pinVerifyResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, pinVerifyResponse{Valid: pin.Matches(p, stored)})
}

// Require rejects requests without the configured PIN in PinHeader.
func (h *PinHandler) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.pin_auth"
		stored, ok, err := h.store.Setting(r.Context(), pinSettingKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
			return
		}
		if !ok {
			writeMessage(w, http.StatusForbidden, "no_pin", "No PIN configured")
			return
		}
		p := r.Header.Get(PinHeader)
		if p == "" {
			writeMessage(w, http.StatusUnauthorized, "pin_required", "PIN required")
			return
		}
		if !pin.Matches(p, stored) {
			h.cfg.log.Warn(r.Context(), "admin request with wrong pin",
				logger.String("path", r.URL.Path), logger.String("device", deviceID(r)))
			writeMessage(w, http.StatusUnauthorized, "wrong_pin", "Wrong PIN")
			return
		}
		next(w, r)
	}
}
