package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ngena"
	httpAdapter "github.com/aretw0/ngena/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook HTTP server",
	Long: `Starts the WhatsApp webhook server. Deliveries posted to /webhook are dispatched
and answered through the Cloud API; /health, /metrics and /actions serve operators.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, cfg, err := openApp(context.Background(), cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		handler := httpAdapter.NewHandler(app,
			httpAdapter.WithActions(app.Dispatcher().Table()),
			httpAdapter.WithMetrics(app.Metrics().Handler()),
			httpAdapter.WithVersion(ngena.Version),
			httpAdapter.WithLogger(app.Logger()),
		)

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			app.Logger().Info("Starting Ngena webhook server", "addr", srv.Addr, "store", cfg.Store.Backend, "records", cfg.Records.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			app.Close()
			os.Exit(1)

		case sig := <-shutdown:
			app.Logger().Info("Start shutdown", "signal", sig.String())

			// Give outstanding deliveries a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", cfg.Server.ShutdownTimeout, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			app.Logger().Info("Ngena server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
