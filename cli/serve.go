package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ferreirogomes/promissory/blockchain_listener"
	"github.com/ferreirogomes/promissory/handlers"
	"github.com/ferreirogomes/promissory/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia o servidor HTTP do ledger",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("falha ao criar logger: %w", err)
	}
	defer log.Sync()

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Listener.Enabled {
		listener := blockchain_listener.NewCustodyListener(a.ledger, cfg.Listener.Interval, log)
		go listener.StartListening(ctx)
	}

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Ledger:         a.ledger,
			Sandbox:        a.sandbox,
			Log:            log,
			MetricsEnabled: cfg.Metrics.Enabled,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("servidor backend iniciado",
			zap.String("addr", cfg.Server.Addr),
			zap.String("chain", cfg.Ledger.Chain),
			zap.String("database", cfg.Database.Driver),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("servidor HTTP falhou: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("encerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("falha ao encerrar servidor: %w", err)
	}
	return nil
}
