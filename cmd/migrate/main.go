// cmd/migrate/main.go
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/db"
	"github.com/unclebandit/cpas-demos/internal/logger"
)

// Applies the run ledger schema to DATABASE_URL
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to DB")
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	log.Info("Run ledger schema applied")
}
