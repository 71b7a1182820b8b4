// Package api serves the scouting HTTP API: record reads and writes, bulk
// sync, the shared admin PIN and PIN-guarded admin operations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/okian/scoutsync/internal/adapters/http/swagger"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DeviceHeader names the header identifying the writing device.
const DeviceHeader = "X-Device-Id"

// Prefix is the path prefix every route is mounted under.
const Prefix = "/api"

// Store is the persistence the handlers need.
type Store interface {
	UpsertPit(ctx context.Context, rec model.PitRecord, device string) (bool, error)
	InsertMatch(ctx context.Context, rec model.MatchRecord, device string) (bool, error)
	BulkSync(ctx context.Context, items []model.SyncItem, device string) (int, error)
	PitAll(ctx context.Context) ([]model.PitRecord, error)
	Matches(ctx context.Context) ([]model.MatchRecord, error)

	ReplacePit(ctx context.Context, rec model.PitRecord, device string) error
	ReplaceMatch(ctx context.Context, rec model.MatchRecord, device string) error
	DeletePit(ctx context.Context, team int) error
	DeleteMatch(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error

	Setting(ctx context.Context, key string) (string, bool, error)
	SetSettingIfAbsent(ctx context.Context, key, value string) (bool, error)
}

// Server wires HTTP routes for the scouting API.
type Server struct {
	cfg serverConfig

	healthHandler  *HealthHandler
	recordsHandler *RecordsHandler
	pinHandler     *PinHandler
	adminHandler   *AdminHandler
	exportHandler  *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(store Store, opts ...Option) *Server {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		cfg:            cfg,
		healthHandler:  NewHealthHandler(cfg.now),
		recordsHandler: NewRecordsHandler(store, cfg),
		pinHandler:     NewPinHandler(store, cfg),
		adminHandler:   NewAdminHandler(store, cfg),
		exportHandler:  NewExportHandler(store, cfg),
	}
}

// Register attaches all routes to r under Prefix.
func (s *Server) Register(r *mux.Router) {
	api := r.PathPrefix(Prefix).Subrouter()
	guard := s.pinHandler.Require

	api.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health")).Methods(http.MethodGet)
	api.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api.HandleFunc("/pit-data", MetricsMiddleware(s.recordsHandler.HandleGetPit, "pit_data")).Methods(http.MethodGet)
	api.HandleFunc("/pit-data", MetricsMiddleware(s.recordsHandler.HandlePostPit, "pit_data")).Methods(http.MethodPost)
	api.HandleFunc("/match-data", MetricsMiddleware(s.recordsHandler.HandleGetMatches, "match_data")).Methods(http.MethodGet)
	api.HandleFunc("/match-data", MetricsMiddleware(s.recordsHandler.HandlePostMatch, "match_data")).Methods(http.MethodPost)
	api.HandleFunc("/sync", MetricsMiddleware(s.recordsHandler.HandleSync, "sync")).Methods(http.MethodPost)

	api.HandleFunc("/pin/status", MetricsMiddleware(s.pinHandler.HandleStatus, "pin_status")).Methods(http.MethodGet)
	api.HandleFunc("/pin/setup", MetricsMiddleware(s.pinHandler.HandleSetup, "pin_setup")).Methods(http.MethodPost)
	api.HandleFunc("/pin/verify", MetricsMiddleware(s.pinHandler.HandleVerify, "pin_verify")).Methods(http.MethodPost)

	api.HandleFunc("/admin/pit-data/{team:[0-9]+}", MetricsMiddleware(guard(s.adminHandler.HandlePutPit), "admin_pit")).Methods(http.MethodPut)
	api.HandleFunc("/admin/pit-data/{team:[0-9]+}", MetricsMiddleware(guard(s.adminHandler.HandleDeletePit), "admin_pit")).Methods(http.MethodDelete)
	api.HandleFunc("/admin/match-data/{id}", MetricsMiddleware(guard(s.adminHandler.HandlePutMatch), "admin_match")).Methods(http.MethodPut)
	api.HandleFunc("/admin/match-data/{id}", MetricsMiddleware(guard(s.adminHandler.HandleDeleteMatch), "admin_match")).Methods(http.MethodDelete)
	api.HandleFunc("/admin/all-data", MetricsMiddleware(guard(s.adminHandler.HandleClearAll), "admin_all")).Methods(http.MethodDelete)

	api.HandleFunc("/export/pit.csv", MetricsMiddleware(s.exportHandler.HandlePit, "export_pit")).Methods(http.MethodGet)
	api.HandleFunc("/export/match.csv", MetricsMiddleware(s.exportHandler.HandleMatches, "export_match")).Methods(http.MethodGet)
}

// Handler returns the full HTTP handler: API and docs routes behind panic
// recovery and CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	swagger.Register(r)
	s.Register(r)

	var h http.Handler = r
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: s.cfg.log}),
		handlers.PrintRecoveryStack(false),
	)(h)

	origins := s.cfg.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", DeviceHeader, PinHeader}),
	)(h)
}

type recoveryLogger struct{ log logger.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	metrics.RecordErrorByComponent("http", "panic")
	l.log.Error(context.Background(), "handler panic", logger.String("panic", fmt.Sprint(v...)))
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeMessage(w, status, code, msg)
}

func writeMessage(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads at most limit bytes of JSON from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// deviceID returns the writing device or "" when the header is absent.
func deviceID(r *http.Request) string {
	return r.Header.Get(DeviceHeader)
}

func nowMillis(now func() time.Time) int64 { return model.Millis(now()) }
