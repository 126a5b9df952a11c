package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"irus/app"
	"irus/config"
	"irus/services"
	"irus/socket"
)

const (
	localProcessARN = "local:process"
	localPostARN    = "local:posttable"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot API, workflows and monthly job locally",
	Long: `Run the bot API locally.

Workflows run in-process instead of Step Functions and publish progress on
socket.io at /socket.io/. Clients join a room with {"invasion": "<name>"}.
The monthly report runs at 02:00 on the first of each month.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Require("TABLE_NAME", "BUCKET_NAME"); err != nil {
		return err
	}
	if cfg.ProcessStepFunc == "" {
		cfg.ProcessStepFunc = localProcessARN
	}
	if cfg.PostStepFunc == "" {
		cfg.PostStepFunc = localPostARN
	}

	awsCfg, err := services.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	a := app.New(cfg, awsCfg, log)

	progress := socket.NewSocketServer(log)
	go func() {
		if err := progress.Serve(); err != nil {
			log.Error("socket server stopped", zap.Error(err))
		}
	}()
	defer progress.Close()

	runner := services.NewLocalRunner(ctx, cfg.ProcessStepFunc, cfg.PostStepFunc, a.Process, a.Webhook, progress, log)
	router, err := a.Router(ctx, runner)
	if err != nil {
		return err
	}
	router.PathPrefix("/socket.io/").Handler(progress)

	scheduler, err := services.NewScheduler(ctx, cfg.Location(), a.MonthReport, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	if next, err := scheduler.NextRun(); err == nil {
		log.Info("monthly report scheduled", zap.Time("next_run", next))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Signature-Ed25519", "X-Signature-Timestamp"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			stop()
			_ = scheduler.Shutdown()
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", zap.Error(err))
	}
	runner.Wait()
	return nil
}
