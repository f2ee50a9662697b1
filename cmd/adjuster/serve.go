package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/internal/cli"
	"github.com/aretw0/adjuster/internal/logging"
	"github.com/aretw0/adjuster/internal/metrics"
	"github.com/aretw0/adjuster/pkg/adapters/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the claim HTTP server",
	Long: `Starts the claim workflow in server mode, exposing the JSON API, the SSE
event stream and Prometheus metrics over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		level, err := logging.ParseLevel(cfg.Logger.Level)
		if err != nil {
			fmt.Printf("Error in config: %v\n", err)
			os.Exit(1)
		}
		logger := logging.New(level)

		registry := prometheus.NewRegistry()
		workflowMetrics := metrics.New(registry)

		wf, cleanup, err := cli.BuildWorkflow(cfg, logger,
			adjuster.WithLifecycleHooks(workflowMetrics.Hooks()))
		if err != nil {
			fmt.Printf("Error building workflow: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		handler := httpapi.NewHandler(wf,
			httpapi.WithLogger(logger),
			httpapi.WithMetrics(registry))

		srv := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Adjuster Server on %s\n", srv.Addr)
			fmt.Printf("Approval threshold: USD %d\n", wf.Threshold())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}

			// The mirrored snapshot is only meaningful while a host serves it.
			if publisher := wf.Publisher(); publisher != nil {
				_ = publisher.Clear(context.Background())
			}
			fmt.Println("Adjuster Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
}
