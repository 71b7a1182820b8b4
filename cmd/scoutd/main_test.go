package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/config"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfiguration(t *testing.T) {
	convey.Convey("Given server settings in the environment", t, func() {
		_ = os.Setenv("SCOUT_ADDR", ":8080")
		_ = os.Setenv("SCOUT_DB_PATH", "/tmp/scout-test.db")
		defer func() {
			_ = os.Unsetenv("SCOUT_ADDR")
			_ = os.Unsetenv("SCOUT_DB_PATH")
		}()

		convey.Convey("Then configuration should pick them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/scout-test.db")
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("SCOUT_ADDR", "")
		defer func() { _ = os.Unsetenv("SCOUT_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the server handler over an in-memory store", t, func() {
		ctx := context.Background()
		store, err := repository.NewSQLiteStore(ctx, repository.MemoryPath)
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()
		h := newHandler(store, config.New(), logger.NewNop())

		convey.Convey("Then health and writes should be served under /api", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			w = httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/pit-data", strings.NewReader(`{"teamNumber":379,"lastUpdated":10}`))
			req.Header.Set("Content-Type", "application/json")
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			pit, err := store.PitAll(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pit, convey.ShouldHaveLength, 1)
		})

		convey.Convey("Then the docs page should be served", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config pointing at a fresh database file", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.DBPath = filepath.Join(t.TempDir(), "scout.db")

		convey.Convey("When run is cancelled shortly after starting", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			err := run(ctx, cfg, logger.NewNop())

			convey.Convey("Then it should shut down cleanly and leave the database behind", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(cfg.DBPath)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop should return when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
