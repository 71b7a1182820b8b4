package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	service "github.com/okian/scoutsync/internal/app"
	"github.com/okian/scoutsync/internal/app/syncer"
	"github.com/spf13/cobra"
)

var errUnreachable = errors.New("server unreachable")

func newRunCmd(flags *globalFlags) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync loop until interrupted",
		Long: `Run probes the server every poll interval, delivers queued writes and
refreshes the local copy. Connection changes are printed as they happen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wait := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				wait, cancel = context.WithTimeout(wait, duration)
				defer cancel()
			}

			obs := newLoopPrinter(cmd.OutOrStdout())
			s, err := openSession(cmd, flags, service.WithSyncOptions(syncer.WithObserver(obs)))
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			// The loop runs on the command context so Stop lets a cycle
			// in flight finish when --duration elapses.
			if err := s.svc.Start(cmd.Context()); err != nil {
				return err
			}
			<-wait.Done()
			s.svc.Stop()

			st := s.svc.Status(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "stopped, %d pending\n", st.Pending)
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until a signal)")
	return cmd
}

// loopPrinter reports sync loop events on w. Only connection changes are
// printed, not every probe.
type loopPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	known bool
	up    bool
}

func newLoopPrinter(w io.Writer) *loopPrinter { return &loopPrinter{w: w} }

func (p *loopPrinter) OnConnectionChange(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.known && p.up == connected {
		return
	}
	p.known, p.up = true, connected
	fmt.Fprintln(p.w, onlineWord(connected))
}

func (p *loopPrinter) OnQueueDrained(remaining int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "delivered queued writes, %d pending\n", remaining)
}

func (p *loopPrinter) OnDataRefresh() {}

func onlineWord(connected bool) string {
	if connected {
		return "online"
	}
	return "offline"
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			res := s.svc.SyncOnce(cmd.Context())
			out := cmd.OutOrStdout()
			if !res.Connected {
				fmt.Fprintf(out, "offline, %d pending\n", res.Remaining)
				return fmt.Errorf("%w: %s", errUnreachable, s.cfg.ServerURL)
			}
			fmt.Fprintf(out, "sent %d, %d pending, refreshed %s (%s)\n",
				res.Sent, res.Remaining, yesNo(res.Refreshed), res.Duration.Round(time.Millisecond))
			if res.Failed {
				return errors.New("sync cycle failed, see log")
			}
			return nil
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the device, the server connection and pending writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			connected := s.remote.Health(ctx)
			st := s.svc.Status(ctx)
			cache := s.svc.Cache()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "device:    %s\n", st.DeviceID)
			fmt.Fprintf(out, "server:    %s (%s)\n", s.cfg.ServerURL, onlineWord(connected))
			fmt.Fprintf(out, "pit:       %d teams\n", len(cache.PitAll()))
			fmt.Fprintf(out, "matches:   %s records\n", humanize.Comma(int64(len(cache.Matches()))))
			pending := s.svc.Pending(ctx)
			if len(pending) == 0 {
				fmt.Fprintln(out, "pending:   none")
				return nil
			}
			fmt.Fprintf(out, "pending:   %d, oldest queued %s\n", len(pending), humanize.Time(pending[0].EnqueuedAt))
			return nil
		},
	}
}
