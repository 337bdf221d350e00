package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"roboreg/internal/admission"
	"roboreg/internal/approval"
	"roboreg/internal/audit"
	httpapi "roboreg/internal/http"
	jwttoken "roboreg/internal/jwt_token"
	"roboreg/internal/payment"
	"roboreg/internal/platform/config"
	"roboreg/internal/platform/httpserver"
	"roboreg/internal/platform/logger"
	platformredis "roboreg/internal/platform/redis"
	"roboreg/internal/sequence"
	"roboreg/internal/store"
	counterstore "roboreg/internal/store/counter"
	eventstore "roboreg/internal/store/event"
	organisationstore "roboreg/internal/store/organisation"
	personstore "roboreg/internal/store/person"
	paymentstore "roboreg/internal/store/payment"
	teamstore "roboreg/internal/store/team"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/tx"
)

const jwtIssuer = "roboreg"

// Union interfaces over the consumer-side store contracts, so main can hold
// one variable per entity regardless of the backing implementation.
type eventStore interface {
	admission.EventStore
	approval.EventStore
	store.EventSeeder
}

type teamStore interface {
	admission.TeamStore
	payment.TeamStore
	approval.TeamStore
}

type personStore interface {
	admission.PersonStore
	approval.PersonStore
	store.PersonSeeder
}

type paymentStore interface {
	payment.PaymentStore
	approval.PaymentStore
}

// main wires configuration, stores, services and the HTTP surface, then runs
// the server until interrupted. Business rules live in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	var (
		db            *sql.DB
		counters      sequence.CounterStore
		organisations store.OrganisationSeeder
		people        personStore
		events        eventStore
		teams         teamStore
		payments      paymentStore
		auditStore    audit.Store
		runner        tx.Runner
	)

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		counters = counterstore.NewPostgres(db)
		organisations = organisationstore.NewPostgres(db)
		people = personstore.NewPostgres(db)
		events = eventstore.NewPostgres(db)
		teams = teamstore.NewPostgres(db)
		payments = paymentstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		runner = tx.NewSQLRunner(db)
		log.Info("stores initialised", "backend", "postgres")
	} else {
		counters = counterstore.NewInMemory()
		organisations = organisationstore.NewInMemory()
		people = personstore.NewInMemory()
		events = eventstore.NewInMemory()
		teams = teamstore.NewInMemory()
		payments = paymentstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		runner = tx.NewPassthroughRunner()
		log.Info("stores initialised", "backend", "memory")
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var lease admission.Lease
	if rdb != nil {
		defer rdb.Close()
		lease = admission.NewRedisLease(rdb.Client, cfg.AdmissionLeaseTTL)
		log.Info("admission lease initialised", "backend", "redis")
	} else {
		lease = admission.NewMemoryLease()
		log.Info("admission lease initialised", "backend", "memory")
	}

	allocator := sequence.NewAllocator(counters, sequence.WithMetrics(sequence.NewMetrics()))
	publisher := audit.NewPublisher(auditStore)

	if db == nil {
		seeded, err := store.SeedDev(ctx, organisations, people, events, allocator, log)
		if err != nil {
			log.Error("failed to seed development data", "error", err)
			os.Exit(1)
		}
		issueDevToken(log, cfg.JWTSigningKey, seeded.OrganisationID)
	}

	admissionSvc := admission.New(events, teams, people, allocator, lease, runner,
		admission.WithLogger(log),
		admission.WithAuditPublisher(publisher),
		admission.WithMetrics(admission.NewMetrics()),
		admission.WithWindowBypass(cfg.RegistrationWindowBypass),
	)
	paymentSvc := payment.New(payments, teams, events, runner,
		payment.WithLogger(log),
		payment.WithAuditPublisher(publisher),
		payment.WithMetrics(payment.NewMetrics()),
	)
	approvalSvc := approval.New(events, teams, people, payments, runner,
		approval.WithLogger(log),
		approval.WithAuditPublisher(publisher),
		approval.WithMetrics(approval.NewMetrics()),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		TokenValidator: jwtService,
		AdminToken:     cfg.AdminToken,
		Admission:      admission.NewHandler(admissionSvc, log),
		Payment:        payment.NewHandler(paymentSvc, log),
		Approval:       approval.NewHandler(approvalSvc, log),
		Health:         healthCheck(db, rdb),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthCheck(db *sql.DB, rdb *platformredis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// issueDevToken logs a bearer token for the seeded organisation so local
// clients can call the API without a separate login flow.
func issueDevToken(log *slog.Logger, signingKey string, orgID id.OrganisationID) {
	svc := jwttoken.NewJWTService(signingKey, jwtIssuer)
	token, err := svc.GenerateAccessToken(orgID, "organisation", 24*time.Hour)
	if err != nil {
		log.Warn("failed to issue development token", "error", err)
		return
	}
	log.Info("development bearer token issued", "organisation_id", orgID, "token", token)
}
