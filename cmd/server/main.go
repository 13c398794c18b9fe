// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/db"
	"github.com/unclebandit/cpas-demos/internal/logger"
	"github.com/unclebandit/cpas-demos/internal/queue"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, cleanup, err := openLedger(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open run ledger")
	}
	defer cleanup()

	router, err := newRouter(cfg, log, l)
	if err != nil {
		log.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server running on %s", cfg.HTTPAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// openLedger wires run recording. With AMQP_URL, events go to RabbitMQ for
// cmd/worker to store. Otherwise, with DATABASE_URL, an in-process queue feeds
// the ledger directly. Run lookups need DATABASE_URL.
func openLedger(ctx context.Context, cfg *config.Config, log *logrus.Logger) (ledger, func(), error) {
	var (
		l       ledger
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var ledgerRepo *repository.LedgerRepository
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return l, cleanup, err
		}
		closers = append(closers, func() { conn.Close() })
		if err := db.Migrate(ctx, conn); err != nil {
			return l, cleanup, err
		}
		ledgerRepo = &repository.LedgerRepository{DB: conn}
		l.Runs = ledgerRepo
	}

	switch {
	case cfg.AMQPURL != "":
		q, err := queue.DialAMQP(cfg.AMQPURL, log)
		if err != nil {
			return l, cleanup, err
		}
		closers = append(closers, func() { q.Close() })
		l.Recorder = &queue.EventRecorder{Queue: q, Topic: cfg.ResultsQueue}
	case ledgerRepo != nil:
		q := queue.NewInMemoryQueue(log)
		if err := queue.StartLedgerSubscriber(q, cfg.ResultsQueue, ledgerRepo, log); err != nil {
			return l, cleanup, err
		}
		l.Recorder = &queue.EventRecorder{Queue: q, Topic: cfg.ResultsQueue}
	default:
		log.Warn("DATABASE_URL and AMQP_URL not set, booster runs will not be recorded")
	}

	return l, cleanup, nil
}
