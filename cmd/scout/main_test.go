package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/okian/scoutsync/internal/adapters/http/api"
	"github.com/okian/scoutsync/internal/adapters/repository"
	"github.com/okian/scoutsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// offlineURL points at a port nothing listens on.
const offlineURL = "http://127.0.0.1:1/api"

func execute(stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func startServer(t *testing.T) (string, *repository.SQLiteStore) {
	t.Helper()
	store, err := repository.NewSQLiteStore(context.Background(), repository.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.NewServer(store).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv.URL + "/api", store
}

func TestTeams(t *testing.T) {
	Convey("Given the teams command", t, func() {
		out, err := execute("", "teams")

		Convey("Then it should list the roster", func() {
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "TEAM")
			So(out, ShouldContainSubstring, strconv.Itoa(model.Teams()[0].Number))
		})
	})
}

func TestOfflineSaveThenSync(t *testing.T) {
	Convey("Given a device that cannot reach the server", t, func() {
		db := filepath.Join(t.TempDir(), "local.db")

		Convey("When a pit record and a match record are saved", func() {
			out, err := execute(`{"teamNumber":379,"comments":"swerve"}`, "pit", "save", "--server", offlineURL, "--db", db)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "saved pit record for team 379 (queued, 1 pending)")

			out, err = execute(`{"matchNumber":4,"teamNumber":379}`, "match", "save", "--server", offlineURL, "--db", db)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "queued, 2 pending")

			Convey("Then the writes should be held locally and survive the process", func() {
				out, err := execute("", "status", "--server", offlineURL, "--db", db)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "offline")
				So(out, ShouldContainSubstring, "pending:   2")

				out, err = execute("", "pit", "show", "379", "--server", offlineURL, "--db", db)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `"comments": "swerve"`)

				_, err = execute("", "sync", "--server", offlineURL, "--db", db)
				So(errors.Is(err, errUnreachable), ShouldBeTrue)
			})

			Convey("Then a sync against the server should deliver them", func() {
				url, store := startServer(t)
				out, err := execute("", "sync", "--server", url, "--db", db)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "sent 2, 0 pending, refreshed yes")

				pit, err := store.PitAll(context.Background())
				So(err, ShouldBeNil)
				So(pit, ShouldHaveLength, 1)
				So(pit[0].Comments, ShouldEqual, "swerve")

				out, err = execute("", "match", "list", "--team", "379", "--server", url, "--db", db)
				So(err, ShouldBeNil)
				So(strings.Count(out, "\n"), ShouldEqual, 2)
			})
		})

		Convey("When a record without a team is saved", func() {
			_, err := execute(`{"comments":"?"}`, "pit", "save", "--server", offlineURL, "--db", db)

			Convey("Then it should be refused", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When reset is run", func() {
			_, err := execute(`{"teamNumber":1}`, "pit", "save", "--server", offlineURL, "--db", db)
			So(err, ShouldBeNil)

			Convey("Then it should want confirmation and then drop everything", func() {
				_, err := execute("", "reset", "--server", offlineURL, "--db", db)
				So(err, ShouldNotBeNil)

				out, err := execute("", "reset", "--yes", "--server", offlineURL, "--db", db)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1 pending writes dropped")

				out, err = execute("", "status", "--server", offlineURL, "--db", db)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "pending:   none")
			})
		})
	})
}

func TestQRTransfer(t *testing.T) {
	Convey("Given a device holding two match records", t, func() {
		dir := t.TempDir()
		sender := filepath.Join(dir, "sender.db")
		for _, body := range []string{`{"matchNumber":1,"teamNumber":379}`, `{"matchNumber":2,"teamNumber":4}`} {
			_, err := execute(body, "match", "save", "--server", offlineURL, "--db", sender)
			So(err, ShouldBeNil)
		}

		Convey("When they are shared as a bulk payload", func() {
			out, err := execute("", "qr", "encode", "--all", "--png", filepath.Join(dir, "share"), "--server", offlineURL, "--db", sender)
			So(err, ShouldBeNil)
			payload := filepath.Join(dir, "payload.txt")
			So(os.WriteFile(payload, []byte(out), 0o600), ShouldBeNil)

			Convey("Then the payload should render and decode", func() {
				So(out, ShouldStartWith, "B1\n")
				_, err := os.Stat(filepath.Join(dir, "share-1.png"))
				So(err, ShouldBeNil)

				out, err := execute("", "qr", "decode", payload)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `"teamNumber": 379`)
			})

			Convey("Then another device should import it once", func() {
				receiver := filepath.Join(dir, "receiver.db")
				out, err := execute("", "qr", "import", payload, payload, "--server", offlineURL, "--db", receiver)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "2 decoded, 2 added, 0 replaced, 0 skipped")
				So(out, ShouldContainSubstring, "already scanned")
				So(out, ShouldContainSubstring, "imported 2 records, 2 pending")

				csv, err := execute("", "export", "matches", "--server", offlineURL, "--db", receiver)
				So(err, ShouldBeNil)
				So(csv, ShouldStartWith, "Match#")
				So(strings.Count(csv, "\n"), ShouldEqual, 3)
			})
		})

		Convey("When encode gets neither ids nor --all", func() {
			_, err := execute("", "qr", "encode", "--server", offlineURL, "--db", sender)

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestAdmin(t *testing.T) {
	Convey("Given a server without a PIN", t, func() {
		url, store := startServer(t)
		ctx := context.Background()
		_, err := store.UpsertPit(ctx, model.NewPitRecord(379), "test")
		So(err, ShouldBeNil)

		out, err := execute("", "admin", "pin", "status", "--server", url)
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "pin set: no")

		Convey("When a PIN is set up", func() {
			_, err := execute("", "admin", "pin", "setup", "1234", "--server", url)
			So(err, ShouldBeNil)

			Convey("Then admin commands should need the right PIN", func() {
				_, err := execute("", "admin", "delete", "pit", "379", "--pin", "9999", "--server", url)
				So(err, ShouldNotBeNil)

				out, err := execute("", "admin", "delete", "pit", "379", "--pin", "1234", "--server", url)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "deleted pit 379")
				pit, err := store.PitAll(ctx)
				So(err, ShouldBeNil)
				So(pit, ShouldBeEmpty)
			})

			Convey("Then clear-all should want confirmation", func() {
				_, err := execute("", "admin", "clear-all", "--pin", "1234", "--server", url)
				So(err, ShouldNotBeNil)

				out, err := execute("", "admin", "clear-all", "--yes", "--pin", "1234", "--server", url)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "server data cleared")
			})

			Convey("Then a second setup should be refused", func() {
				_, err := execute("", "admin", "pin", "setup", "5678", "--server", url)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When no PIN is given", func() {
			t.Setenv(envAdminPin, "")
			_, err := execute("", "admin", "delete", "match", "x", "--server", url)

			Convey("Then the command should fail before calling the server", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "admin PIN required")
			})
		})
	})
}

func TestRunLoop(t *testing.T) {
	Convey("Given a queued write and a reachable server", t, func() {
		t.Setenv("SCOUT_POLL_INTERVAL_MS", "20")
		db := filepath.Join(t.TempDir(), "local.db")
		_, err := execute(`{"teamNumber":254}`, "pit", "save", "--server", offlineURL, "--db", db)
		So(err, ShouldBeNil)
		url, store := startServer(t)

		Convey("When the loop runs for a moment", func() {
			out, err := execute("", "run", "--duration", "300ms", "--server", url, "--db", db)

			Convey("Then it should go online and deliver the write", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "online\n")
				So(out, ShouldContainSubstring, "delivered queued writes, 0 pending")
				So(out, ShouldEndWith, "stopped, 0 pending\n")
				pit, err := store.PitAll(context.Background())
				So(err, ShouldBeNil)
				So(pit, ShouldHaveLength, 1)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a fresh server", t, func() {
		url, _ := startServer(t)

		Convey("When a small load run is made", func() {
			out, err := execute("", "load", "--devices", "3", "--pit-writes", "4", "--matches", "5",
				"--batch", "4", "--workers", "2", "--server", url)

			Convey("Then it should converge", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "matches 15 found, 0 missing, 0 duplicated")
				So(out, ShouldEndWith, "converged\n")
			})
		})

		Convey("When the server is down", func() {
			_, err := execute("", "load", "--devices", "1", "--server", offlineURL)

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
