// cmd/tools/index-rebuilder/main.go
//
// Rebuilds the search index from the database:
//
//	index-rebuilder            reindex every organisation in place
//	index-rebuilder -recreate  drop and recreate the index first
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"service-directory/internal/common/config"
	"service-directory/internal/common/database"
	"service-directory/internal/common/logger"
	"service-directory/internal/indexer"
	"service-directory/internal/storage"
)

func main() {
	recreate := flag.Bool("recreate", false, "drop and recreate the index with its mapping before indexing")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall rebuild deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch connection failed", zap.Error(err))
	}
	if err := esClient.Ping(); err != nil {
		zapLog.Fatal("elasticsearch ping failed", zap.Error(err))
	}

	orgs := storage.NewOrganisationRepository(pg.DB, log)
	rebuilder := indexer.NewRebuilder(esClient.Client, orgs, cfg.Search.IndexName, log)

	if *recreate {
		zapLog.Info("Recreating index", zap.String("index", cfg.Search.IndexName))
		if err := rebuilder.RecreateIndex(ctx); err != nil {
			zapLog.Fatal("index recreation failed", zap.Error(err))
		}
	}

	start := time.Now()
	indexed, err := rebuilder.Rebuild(ctx)
	if err != nil {
		zapLog.Fatal("rebuild failed",
			zap.Error(err),
			zap.Int64("indexed", indexed),
		)
	}

	zapLog.Info("Rebuild complete",
		zap.Int64("indexed", indexed),
		zap.String("index", cfg.Search.IndexName),
		zap.Duration("took", time.Since(start)),
	)
}
