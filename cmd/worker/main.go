// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/db"
	"github.com/unclebandit/cpas-demos/internal/logger"
	"github.com/unclebandit/cpas-demos/internal/queue"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

// The worker drains the results queue into the run ledger
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}
	if cfg.DatabaseURL == "" || cfg.AMQPURL == "" {
		log.Fatal("DATABASE_URL and AMQP_URL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to DB")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		log.WithError(err).Fatal("Failed to migrate DB")
	}

	q, err := queue.DialAMQP(cfg.AMQPURL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer q.Close()

	if err := consume(q, cfg.ResultsQueue, &repository.LedgerRepository{DB: conn}, log); err != nil {
		log.WithError(err).Fatal("Failed to register consumer")
	}

	<-ctx.Done()
	log.Info("Worker stopping")
}

func consume(q queue.Queue, topic string, ledger queue.LedgerWriter, log logrus.FieldLogger) error {
	if err := queue.StartLedgerSubscriber(q, topic, ledger, log); err != nil {
		return err
	}
	log.WithField("queue", topic).Info("Worker running, waiting for ledger events...")
	return nil
}
