package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/novin-data/ingest-gateway/internal/config"
	"github.com/novin-data/ingest-gateway/internal/erasure"
	"github.com/novin-data/ingest-gateway/internal/extract"
	"github.com/novin-data/ingest-gateway/internal/gateway"
	"github.com/novin-data/ingest-gateway/internal/pipeline"
	"github.com/novin-data/ingest-gateway/internal/repository"
	"github.com/novin-data/ingest-gateway/internal/router"
	"github.com/novin-data/ingest-gateway/internal/rules"
	"github.com/novin-data/ingest-gateway/pkg/logger"
	"github.com/novin-data/ingest-gateway/pkg/pg"
	"github.com/novin-data/ingest-gateway/pkg/prom"
	"github.com/novin-data/ingest-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	var cache *gateway.RefCache
	if config.Get().RedisAddr != "" && !config.Get().ReferenceCacheOff {
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{config.Get().RedisAddr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		cache = gateway.NewRefCache(redisAdap, config.Get().ReferenceCacheTTL)
	}

	staging := &extract.Staging{
		RawRoot:       config.Get().StagingRawDir,
		ProcessedRoot: config.Get().StagingProcessedDir,
		ArchiveRoot:   config.Get().StagingArchiveDir,
	}
	store := gateway.NewStore(db, cache)
	checker := rules.NewChecker()
	rtr := router.New(checker, config.Get().RouterParallelism)
	eraser := erasure.NewProcessor(staging, repository.NewErasureRepository(db))
	pipe := pipeline.New(staging, store, rtr, eraser, cache)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(config.Get().MetricsListenAddr, config.Get().MetricsEndpointURI)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutdown signal received, finishing current cycle")
		cancel()
	}()

	logger.Info("ingest processor started",
		"version", version, "commit", commit, "built", date,
		"raw_dir", config.Get().StagingRawDir,
		"scan_interval", config.Get().ScanInterval.String())

	ticker := time.NewTicker(config.Get().ScanInterval)
	defer ticker.Stop()
	for {
		if err := pipe.RunAll(ctx); err != nil && ctx.Err() == nil {
			logger.Error("ingest cycle failed", "error", err)
		}
		staging.CleanupEmptyDirs()
		select {
		case <-ctx.Done():
			logger.Info("ingest processor stopped")
			return
		case <-ticker.C:
		}
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
