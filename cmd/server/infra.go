package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	orgservice "clinic/internal/organization/service"
	orgstore "clinic/internal/organization/store"
	"clinic/internal/platform/config"
	"clinic/internal/platform/kafka"
	"clinic/internal/platform/postgres"
	"clinic/internal/platform/redis"
	profservice "clinic/internal/professional/service"
	profstore "clinic/internal/professional/store"
	userservice "clinic/internal/user/service"
	userstore "clinic/internal/user/store"
	"clinic/pkg/platform/audit"
	auditmemory "clinic/pkg/platform/audit/store/memory"
	auditpostgres "clinic/pkg/platform/audit/store/postgres"
	"clinic/pkg/platform/tx"
)

// backends holds the storage and messaging backends. Without DATABASE_URL every
// store is in memory, including the audit outbox. The relay drains whichever
// outbox is in use once Kafka brokers are configured.
type backends struct {
	db       *sql.DB
	redis    *redis.Client
	kafka    *kgo.Client
	txRunner tx.Runner
	log      *slog.Logger

	users         userservice.Store
	organizations orgservice.Store
	professionals profservice.Store
	audit         audit.Store
	outbox        kafka.Outbox
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	i := &backends{log: log}

	if cfg.Database.URL == "" {
		i.txRunner = tx.NopRunner{}
		i.users = userstore.NewInMemoryStore()
		i.organizations = orgstore.NewInMemoryStore()
		i.professionals = profstore.NewInMemoryStore()
		memoryOutbox := auditmemory.NewInMemoryStore()
		i.audit, i.outbox = memoryOutbox, memoryOutbox
	} else {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		i.db = db
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			i.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.Info("applied migrations", "versions", applied)
		}
		i.txRunner = tx.NewSQLRunner(db, cfg.Database.TxTimeout)
		i.users = userstore.NewPostgres(db)
		i.organizations = orgstore.NewPostgres(db)
		i.professionals = profstore.NewPostgres(db)
		postgresOutbox := auditpostgres.New(db)
		i.audit, i.outbox = postgresOutbox, postgresOutbox
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		i.Close()
		return nil, err
	}
	i.redis = rdb

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewClient(cfg.Kafka)
		if err != nil {
			i.Close()
			return nil, err
		}
		i.kafka = client
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
	}
	return i, nil
}

func (i *backends) Kind() string {
	if i.db == nil {
		return "memory"
	}
	return "postgres"
}

// Health reports "ok" or the failure for each configured backend.
func (i *backends) Health(ctx context.Context) map[string]string {
	checks := map[string]string{}
	report := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}
	if i.db != nil {
		report("postgres", i.db.PingContext(ctx))
	}
	if i.redis != nil {
		report("redis", i.redis.Health(ctx))
	}
	if i.kafka != nil {
		report("kafka", i.kafka.Ping(ctx))
	}
	return checks
}

func (i *backends) Close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.log.Warn("closing redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			i.log.Warn("closing database", "error", err)
		}
	}
}
