package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"sessionmeta/internal/auth"
	"sessionmeta/internal/export"
	synchub "sessionmeta/internal/sync"
	"sessionmeta/pkg/database"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var csvDir, sqlitePath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the normalized index to CSV files and/or a SQLite snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if csvDir == "" && sqlitePath == "" {
				return errors.New("nothing to do: pass --csv and/or --sqlite")
			}
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			ix, err := opts.loadIndex(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if csvDir != "" {
				if err := export.WriteCSV(csvDir, ix); err != nil {
					return fmt.Errorf("csv export: %w", err)
				}
				fmt.Fprintf(out, "wrote CSV files to %s\n", csvDir)
			}
			if sqlitePath != "" {
				dbCfg := database.Config{Path: sqlitePath}
				if sqlitePath == "-" {
					dbCfg = database.DefaultConfig()
					if cfg.SnapshotDB != "" {
						dbCfg.Path = cfg.SnapshotDB
					}
				}
				db, err := database.Open(dbCfg)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := export.WriteSQLite(cmd.Context(), db, ix); err != nil {
					return fmt.Errorf("sqlite export: %w", err)
				}
				fmt.Fprintf(out, "wrote snapshot %s to %s\n", ix.ID(), dbCfg.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvDir, "csv", "", "directory for workshops.csv, mmm.csv, mwm.csv and podcasts.csv")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite snapshot file; - uses the configured snapshot_db")
	return cmd
}

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the guarded /meta endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			ts := auth.TokenService{
				Secret:   []byte(cfg.Auth.JWTSecret),
				Issuer:   cfg.Auth.JWTIssuer,
				Duration: cfg.Auth.JWTDuration,
			}
			token, exp, err := ts.Sign(operator)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"token":      token,
				"operator":   operator,
				"expires_at": exp,
			})
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "operator", "name recorded in the token")
	return cmd
}

func newEventsCmd(_ *globalOptions) *cobra.Command {
	var addr, wsURL string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow reload notifications from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			emit := func(line []byte) { fmt.Fprintln(out, string(line)) }

			if wsURL != "" {
				return followWS(ctx, wsURL, emit)
			}
			return synchub.Subscribe(ctx, addr, emit)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:7070", "TCP sync server address")
	cmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL, e.g. ws://localhost:8080/ws (overrides --addr)")
	return cmd
}

func followWS(ctx context.Context, url string, fn func([]byte)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(msg)
	}
}
