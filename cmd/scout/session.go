package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/scoutsync/internal/adapters/http/client"
	"github.com/okian/scoutsync/internal/adapters/repository"
	service "github.com/okian/scoutsync/internal/app"
	"github.com/okian/scoutsync/internal/config"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/spf13/cobra"
)

// globalFlags override the loaded configuration.
type globalFlags struct {
	server   string
	db       string
	logLevel string
}

func (f *globalFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if f.server != "" {
		cfg.ServerURL = f.server
	}
	if f.db != "" {
		cfg.LocalDBPath = f.db
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is one command's view of the client: local store, server and
// the service joining them.
type session struct {
	cfg    *config.Config
	log    logger.Logger
	store  *repository.LocalStore
	remote *client.Client
	svc    *service.Service
}

// openSession opens the local database and the service on top of it. Logs
// go to the command's stderr so stdout stays machine readable.
func openSession(cmd *cobra.Command, flags *globalFlags, opts ...service.Option) (*session, error) {
	cfg, err := flags.config(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	log := logger.New(cmd.ErrOrStderr()).Named("scout")

	store, err := repository.NewLocalStore(ctx, cfg.LocalDBPath, repository.WithLogger(log.Named("store")))
	if err != nil {
		return nil, err
	}
	id, err := store.DeviceID(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	remote, err := client.New(cfg.ServerURL,
		client.WithDeviceID(id),
		client.WithRequestTimeout(cfg.RequestTimeout()),
		client.WithHealthTimeout(cfg.HealthTimeout()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	base := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithPollInterval(cfg.PollInterval()),
		service.WithHealthTimeout(cfg.HealthTimeout()),
		service.WithQRMaxBytes(cfg.QRMaxBytes),
	}
	svc, err := service.Open(ctx, store, remote, append(base, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, store: store, remote: remote, svc: svc}, nil
}

func (s *session) Close() error {
	return errors.Join(s.svc.Close(), s.store.Close())
}

// openRemote builds a client for commands that only talk to the server.
func openRemote(cmd *cobra.Command, flags *globalFlags) (*client.Client, error) {
	cfg, err := flags.config(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(cfg.ServerURL,
		client.WithRequestTimeout(cfg.RequestTimeout()),
		client.WithHealthTimeout(cfg.HealthTimeout()),
	)
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func decodeJSONInput(cmd *cobra.Command, path string, v any) error {
	b, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", inputName(path), err)
	}
	return nil
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
