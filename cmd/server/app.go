package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	addressclient "clinic/internal/address/client"
	addresshandler "clinic/internal/address/handler"
	addressmetrics "clinic/internal/address/metrics"
	addressservice "clinic/internal/address/service"
	addressstore "clinic/internal/address/store"
	jwttoken "clinic/internal/jwt_token"
	orgadapters "clinic/internal/organization/adapters"
	orghandler "clinic/internal/organization/handler"
	orgmetrics "clinic/internal/organization/metrics"
	orgservice "clinic/internal/organization/service"
	"clinic/internal/platform/config"
	"clinic/internal/platform/kafka"
	profadapters "clinic/internal/professional/adapters"
	profhandler "clinic/internal/professional/handler"
	profmetrics "clinic/internal/professional/metrics"
	"clinic/internal/professional/registry"
	profservice "clinic/internal/professional/service"
	userhandler "clinic/internal/user/handler"
	"clinic/internal/user/lockout"
	usermetrics "clinic/internal/user/metrics"
	usermodels "clinic/internal/user/models"
	userservice "clinic/internal/user/service"
	"clinic/pkg/platform/audit/publisher"
	"clinic/pkg/platform/i18n"
)

const (
	tokenAudience = "clinic-api"
	cepRetryCount = 2
)

type routes interface {
	Register(r chi.Router)
}

type application struct {
	registry *prometheus.Registry
	handlers []routes
	relay    *kafka.Relay
}

func buildApp(cfg config.Config, infra *backends, reg *prometheus.Registry, catalog *i18n.Catalog, log *slog.Logger) *application {
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, tokenAudience, cfg.Server.TokenTTL)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)
	auditPublisher := publisher.NewPublisher(infra.audit, publisher.WithLogger(log))

	// Lockouts are shared between instances when Redis is available.
	var lockoutStore lockout.Store = lockout.NewInMemoryStore()
	if infra.redis != nil {
		lockoutStore = lockout.NewRedisStore(infra.redis.Client)
	}
	loginLimiter := lockout.New(lockoutStore, lockout.Config{
		MaxAttempts:  cfg.Security.LoginMaxAttempts,
		Window:       cfg.Security.LoginWindow,
		LockDuration: cfg.Security.LoginLockDuration,
	})

	userService := userservice.New(infra.users, jwtService,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithMetrics(usermetrics.New(reg)),
		userservice.WithTxRunner(infra.txRunner),
		userservice.WithLoginLimiter(loginLimiter),
		userservice.WithPasswordRules(usermodels.PasswordRules{
			Policy:     cfg.Security.PasswordPolicy(),
			Iterations: cfg.Security.PBKDF2Iterations,
		}),
	)

	cepOpts := []addressservice.Option{
		addressservice.WithLogger(log),
		addressservice.WithMetrics(addressmetrics.New(reg)),
	}
	if infra.redis != nil {
		cepOpts = append(cepOpts, addressservice.WithCache(addressstore.NewRedisCache(infra.redis.Client, cfg.CEP.CacheTTL)))
	}
	cepService := addressservice.New(addressclient.New(addressclient.Config{
		BaseURL:    cfg.CEP.BaseURL,
		Timeout:    cfg.CEP.Timeout,
		RetryCount: cepRetryCount,
	}), cepOpts...)

	professionalTypes := registry.Default()
	professionalService := profservice.New(infra.professionals, professionalTypes,
		profservice.WithLogger(log),
		profservice.WithAuditPublisher(auditPublisher),
		profservice.WithMetrics(profmetrics.New(reg)),
		profservice.WithTxRunner(infra.txRunner),
		profservice.WithAddressLookup(profadapters.NewCEPAdapter(cepService)),
	)

	orgService := orgservice.New(infra.organizations, orgadapters.NewProfessionalAdapter(professionalService, professionalTypes),
		orgservice.WithLogger(log),
		orgservice.WithAuditPublisher(auditPublisher),
		orgservice.WithMetrics(orgmetrics.New(reg)),
		orgservice.WithTxRunner(infra.txRunner),
	)

	app := &application{
		registry: reg,
		handlers: []routes{
			userhandler.New(userService, log, validator, userService, cfg.Server.AdminToken, catalog),
			orghandler.New(orgService, log, validator, userService, catalog),
			profhandler.New(professionalService, log, validator, userService, catalog),
			addresshandler.New(cepService, log, validator, userService, catalog),
		},
	}
	if infra.kafka != nil {
		app.relay = kafka.NewRelay(infra.outbox, infra.kafka, infra.txRunner,
			cfg.Kafka.Topic, cfg.Kafka.PollInterval, cfg.Kafka.BatchSize,
			kafka.WithLogger(log),
			kafka.WithRegisterer(reg),
		)
	}
	return app
}
