// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"querydesk/cli/internal/devserver"
	"querydesk/cli/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// serveCmd runs the local development backend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local query backend over HTTP and gRPC",
	Long: `The serve command starts a development backend that implements the same API as the
hosted service, against a local database server or a directory of SQLite files. Questions are
executed as SQL as-is; there is no natural-language translation.

Drivers:
  sqlite    --dsn is a directory; every *.db file in it is a database
  mysql     --dsn is a go-sql-driver DSN or mysql:// URL
  postgres  --dsn is a postgres:// URL or key=value string

Statements that DROP, TRUNCATE, ALTER or DELETE are refused. With --token every request must
carry it as a bearer token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sc := cfg.Server
		store, err := devserver.NewStore(ctx, devserver.StoreOptions{
			Driver: sc.Driver,
			DSN:    sc.DSN,
			Hidden: sc.HiddenDatabases,
			Logger: log,
		})
		if err != nil {
			return fmt.Errorf("open %s database: %w", sc.Driver, errors.New(logging.Mask(err.Error())))
		}
		defer func() { _ = store.Close() }()
		svc := devserver.NewService(store, nil, log)

		httpLis, err := net.Listen("tcp", sc.Addr)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{
			Handler:           devserver.Router(svc, sc.Token, log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		var (
			grpcLis net.Listener
			grpcSrv *grpc.Server
		)
		if sc.GRPCAddr != "" {
			grpcLis, err = net.Listen("tcp", sc.GRPCAddr)
			if err != nil {
				_ = httpLis.Close()
				return err
			}
			grpcSrv = devserver.NewGRPCServer(svc, sc.Token, log)
		}

		pterm.Success.Printfln("Serving %s databases from %s", store.Type(), logging.Mask(sc.DSN))
		pterm.Info.Printfln("HTTP  http://%s", httpLis.Addr())
		if grpcLis != nil {
			pterm.Info.Printfln("gRPC  %s", grpcLis.Addr())
		}
		if sc.Token == "" {
			pterm.Warning.Println("No --token set; requests are not authenticated")
		}

		eg, egctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		if grpcSrv != nil {
			eg.Go(func() error {
				if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					return fmt.Errorf("grpc server: %w", err)
				}
				return nil
			})
		}
		eg.Go(func() error {
			<-egctx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if grpcSrv != nil {
				go func() {
					<-shutdownCtx.Done()
					grpcSrv.Stop()
				}()
				grpcSrv.GracefulStop()
			}
			return httpSrv.Shutdown(shutdownCtx)
		})
		return eg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.String("addr", "", "HTTP listen address (default 127.0.0.1:5000)")
	f.String("grpc-addr", "", "gRPC listen address; empty disables gRPC")
	f.String("driver", "", "Database driver: sqlite, mysql or postgres")
	f.String("dsn", "", "Database DSN, or a directory for sqlite")
	f.String("token", "", "Bearer token clients must present")
}
