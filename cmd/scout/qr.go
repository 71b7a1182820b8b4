package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/okian/scoutsync/internal/domain/codec"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/spf13/cobra"
)

const (
	defaultPNGSize = 512
	filePermission = 0o644
)

func newQRCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Move match records between devices as QR payloads",
	}
	cmd.AddCommand(newQREncodeCmd(flags), newQRDecodeCmd(), newQRImportCmd(flags))
	return cmd
}

func newQREncodeCmd(flags *globalFlags) *cobra.Command {
	var (
		all    bool
		png    string
		pngDim int
	)
	cmd := &cobra.Command{
		Use:   "encode [match-id...]",
		Short: "Encode match records as QR payloads",
		Long: `Encode prints one single-record payload per id, or with --all the whole
local match list as bulk payloads split to fit one QR code each. Payloads
are separated by a blank line. With --png each payload is also rendered to
<prefix>-<n>.png.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass match ids or --all")
			}
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			var payloads []string
			if all {
				payloads = s.svc.ShareAll()
			} else {
				byID := map[string]model.MatchRecord{}
				for _, m := range s.svc.Cache().Matches() {
					byID[m.ID] = m
				}
				for _, id := range args {
					m, ok := byID[id]
					if !ok {
						return fmt.Errorf("no match record %s", id)
					}
					payloads = append(payloads, codec.EncodeMatch(m))
				}
			}

			out := cmd.OutOrStdout()
			for i, p := range payloads {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, p)
				if png == "" {
					continue
				}
				img, err := codec.RenderPNG(p, pngDim)
				if err != nil {
					return err
				}
				name := fmt.Sprintf("%s-%d.png", png, i+1)
				if err := os.WriteFile(name, img, filePermission); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "encode every local match record")
	cmd.Flags().StringVar(&png, "png", "", "also render payloads to PNG files with this prefix")
	cmd.Flags().IntVar(&pngDim, "size", defaultPNGSize, "PNG edge length in pixels")
	return cmd
}

func newQRDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Print the records in a payload without importing them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			recs := codec.Decode(strings.TrimRight(string(raw), "\r\n"))
			if len(recs) == 0 {
				return fmt.Errorf("%s holds no match records", inputName(path))
			}
			return writeJSON(cmd.OutOrStdout(), recs)
		},
	}
}

func newQRImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import scanned payloads into the local records",
		Long: `Import merges every payload file into the local records within one scan
session: a payload repeated in the same session is skipped, and a record
replaces a local one for the same match and team only when it is newer.
Records that changed are published to the server or queued.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			scan := s.svc.NewScanSession()
			out := cmd.OutOrStdout()
			total := 0
			for _, path := range args {
				raw, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				res, err := scan.Scan(ctx, strings.TrimRight(string(raw), "\r\n"))
				if err != nil {
					return fmt.Errorf("import %s: %w", inputName(path), err)
				}
				switch {
				case res.Duplicate:
					fmt.Fprintf(out, "%s: already scanned\n", inputName(path))
				case res.Decoded == 0:
					fmt.Fprintf(out, "%s: no match records\n", inputName(path))
				default:
					fmt.Fprintf(out, "%s: %d decoded, %d added, %d replaced, %d skipped\n",
						inputName(path), res.Decoded, res.Added, res.Replaced, res.Skipped)
					total += res.Imported()
				}
			}
			fmt.Fprintf(out, "imported %d records, %d pending\n", total, s.svc.Status(ctx).Pending)
			return nil
		},
	}
}
