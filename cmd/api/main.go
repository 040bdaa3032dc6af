package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	rediscache "github.com/srgjo27/car_rental/internal/adapter/cache/redis"
	"github.com/srgjo27/car_rental/internal/adapter/events/kafka"
	"github.com/srgjo27/car_rental/internal/adapter/handler"
	"github.com/srgjo27/car_rental/internal/adapter/repository/memory"
	"github.com/srgjo27/car_rental/internal/adapter/repository/postgres"
	"github.com/srgjo27/car_rental/internal/config"
	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/srgjo27/car_rental/internal/core/ports"
	"github.com/srgjo27/car_rental/internal/core/services"
	"github.com/srgjo27/car_rental/internal/platform/auth"
	"github.com/srgjo27/car_rental/internal/platform/database"
	"github.com/srgjo27/car_rental/internal/platform/logger"
)

func main() {
	app := &cli.App{
		Name:  "car-rental",
		Usage: "car rental booking service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file read before the environment"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "storage", Usage: "postgres or memory (overrides STORAGE)"},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or revert database migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "down", Usage: "revert N migrations instead of applying"},
				},
				Action: migrateCmd,
			},
			{
				Name:  "add-car",
				Usage: "insert an available car",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "price", Required: true, Usage: "price in minor units"},
					&cli.StringFlag{Name: "currency", Value: "IDR"},
				},
				Action: addCar,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sub", Required: true, Usage: "user id"},
					&cli.StringFlag{Name: "role", Value: "customer"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
				},
				Action: issueToken,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("car-rental failed")
	}
}

func setup(c *cli.Context) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout), nil
}

func openDB(ctx context.Context, cfg *config.Config, l *log.Logger) (*sql.DB, error) {
	return database.NewPostgresDB(ctx, database.Config{
		URL:             cfg.DatabaseURL(),
		MaxRetries:      cfg.DBConnectTries,
		RetryInterval:   cfg.DBRetryInterval,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}, logger.Component(l, "database"))
}

func serve(c *cli.Context) error {
	cfg, l, err := setup(c)
	if err != nil {
		return err
	}
	if s := c.String("storage"); s != "" {
		cfg.Storage = s
	}
	l.WithFields(cfg.Fields()).Info("configuration loaded")

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer b.close()

	opts := []services.ReservationOption{
		services.WithReservationTimeout(cfg.ReservationTimeout),
		services.WithAuditTimeout(cfg.AuditTimeout),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Component(l, "kafka"))
		defer publisher.Close()
		opts = append(opts, services.WithEventPublisher(publisher))
	}

	reservationService := services.NewReservationService(b.carRepo, b.auditRepo, b.carCache, logger.Component(l, "reservation"), opts...)
	carService := services.NewCarService(b.carRepo, b.carCache, logger.Component(l, "cars"))

	httpLog := logger.Component(l, "http")
	router := handler.NewRouter(
		handler.NewBookingHandler(reservationService, carService, httpLog),
		handler.RouterConfig{
			Verifier:       auth.NewVerifier(cfg.JWTSecret),
			Idempotency:    b.idempotency,
			RequestTimeout: cfg.RequestTimeout,
		},
		httpLog,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server startup failed: %w", err)
	}

	l.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	l.Info("server exiting")
	return nil
}

type backends struct {
	carRepo     ports.CarRepository
	auditRepo   ports.AuditRepository
	carCache    ports.CarCache
	idempotency handler.IdempotencyStore
	closers     []func() error
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// openBackends wires storage and caching. Memory mode keeps everything in
// process and needs neither postgres nor redis.
func openBackends(ctx context.Context, cfg *config.Config, l *log.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		b.carRepo, b.auditRepo = store, store
		b.idempotency = handler.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
		l.Warn("using in-memory storage without redis, bookings are not shared between instances")
		return b, nil
	case config.StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	db, err := openDB(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, db.Close)

	if err := database.MigrateUp(db); err != nil {
		b.close()
		return nil, err
	}
	b.carRepo, b.auditRepo = postgres.NewCarRepository(db), postgres.NewAuditRepository(db)

	l.WithField("addr", cfg.RedisAddr()).Info("connecting to redis")
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
		DB:   cfg.RedisDB,
	})
	b.closers = append(b.closers, redisClient.Close)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	b.carCache = rediscache.NewCarCache(redisClient, cfg.CarsCacheTTL)
	b.idempotency = handler.NewRedisIdempotencyStore(redisClient, cfg.IdempotencyTTL)

	return b, nil
}

func migrateCmd(c *cli.Context) error {
	cfg, l, err := setup(c)
	if err != nil {
		return err
	}

	db, err := openDB(c.Context, cfg, l)
	if err != nil {
		return err
	}
	defer db.Close()

	if n := c.Int("down"); n > 0 {
		if err := database.MigrateDown(db, n); err != nil {
			return err
		}
		l.WithField("steps", n).Info("migrations reverted")
		return nil
	}

	if err := database.MigrateUp(db); err != nil {
		return err
	}
	l.Info("migrations applied")
	return nil
}

func addCar(c *cli.Context) error {
	cfg, l, err := setup(c)
	if err != nil {
		return err
	}

	db, err := openDB(c.Context, cfg, l)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := services.NewCarService(postgres.NewCarRepository(db), nil, logger.Component(l, "cars"))
	car, err := svc.AddCar(c.Context, domain.Money{AmountMinor: c.Int64("price"), Currency: c.String("currency")})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, car.ID)
	return nil
}

func issueToken(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}

	token, err := auth.NewVerifier(cfg.JWTSecret).Issue(c.String("sub"), c.String("role"), c.Duration("ttl"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
