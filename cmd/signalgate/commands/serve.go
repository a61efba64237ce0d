package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtarnawa/signalgate/internal/api"
	"github.com/mtarnawa/signalgate/internal/api/handlers"
	"github.com/mtarnawa/signalgate/internal/realtime"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET  /health                            - Health check
  POST /api/signals/{id}/evaluate         - Run the validation pipeline
  POST /api/signals/{id}/score            - Compute and store a score
  GET  /api/signals/{id}/score            - Stored score
  GET  /api/signals/{id}/evaluation       - Stored evaluation
  POST /api/signals/rescore               - Bulk rescore
  GET  /api/weights                       - All weight configs
  GET  /api/weights/active                - Active weight config
  POST /api/weights/optimize              - Propose (and optionally commit) weights
  POST /api/weights/{version}/activate    - Activate a stored config
  GET  /ws/evaluations                    - Evaluation stream (websocket)

Example:
  go run ./cmd/signalgate serve
  go run ./cmd/signalgate serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	var hub *realtime.Hub
	if a.cfg.Pipeline.BroadcastEvaluations {
		hub = realtime.NewHub(a.logger)
		a.pipeline.SetBroadcaster(hub)
	}

	signalHandler := handlers.NewSignalHandler(
		a.signals, a.scores, a.evaluations, a.scorer, a.pipeline, a.logger)
	weightsHandler := handlers.NewWeightsHandler(a.weights, a.optimizer, a.cfg, a.logger)

	router := api.NewRouter(signalHandler, weightsHandler, hub, a.logger)
	server := api.New(a.cfg, a.logger, router)

	go func() {
		if err := server.Start(); err != nil {
			a.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.logger.Info("Server stopped")
	return nil
}
