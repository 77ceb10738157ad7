package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/config"
	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/handlers"
	webhookhandlers "github.com/GlebRadaev/creditsettle/internal/handlers/webhook"
	"github.com/GlebRadaev/creditsettle/internal/lock"
	"github.com/GlebRadaev/creditsettle/internal/outbox"
	"github.com/GlebRadaev/creditsettle/internal/pg"
	"github.com/GlebRadaev/creditsettle/internal/provider"
	"github.com/GlebRadaev/creditsettle/internal/repo"
	"github.com/GlebRadaev/creditsettle/internal/repo/memory"
	"github.com/GlebRadaev/creditsettle/internal/service"
	"github.com/GlebRadaev/creditsettle/internal/service/checkoutservice"
	"github.com/GlebRadaev/creditsettle/internal/service/settlementservice"
	"github.com/GlebRadaev/creditsettle/internal/service/verifyservice"
	"github.com/GlebRadaev/creditsettle/internal/tracing"
	"github.com/GlebRadaev/creditsettle/pkg/auth"
	"github.com/GlebRadaev/creditsettle/pkg/clients"
	"github.com/GlebRadaev/creditsettle/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg        *config.Config
	api        *handlers.Handlers
	srv        *service.Services
	repo       *repo.Repositories
	dispatcher *outbox.Dispatcher
	publisher  outbox.Publisher
	tracer     *tracing.Provider
	closers    []func()

	dispatcherDone chan struct{}

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	a.cfg = cfg

	a.tracer, err = tracing.NewProvider(ctx, tracing.Config{
		Endpoint:     cfg.OTelEndpoint,
		SamplingRate: cfg.OTelSampling,
		Insecure:     cfg.OTelInsecure,
	})
	if err != nil {
		zap.L().Error("tracing init failed: ", zap.Error(err))
		return fmt.Errorf("can't init tracing: %w", err)
	}

	a.repo, err = a.buildRepositories(ctx)
	if err != nil {
		return err
	}

	stripeProvider := provider.NewStripe(provider.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	polarProvider := provider.NewPolar(provider.PolarConfig{
		WebhookSecret: cfg.PolarWebhookSecret,
		AccessToken:   cfg.PolarAccessToken,
		APIURL:        cfg.PolarAPIURL,
		PublicBaseURL: cfg.PublicBaseURL,
		Products: provider.PolarProducts{
			Starter:     cfg.PolarProducts.Starter,
			Popular:     cfg.PolarProducts.Popular,
			Pro:         cfg.PolarProducts.Pro,
			LinksUnlock: cfg.PolarProducts.LinksUnlock,
		},
	}, clients.NewHTTPClient())

	a.srv = service.New(a.repo, service.Options{
		StartingCredits: cfg.StartingCredits,
		AuditTopic:      cfg.KafkaAuditTopic,
		Locker:          a.buildLocker(ctx),
		Lookups: map[domain.Provider]verifyservice.SessionLookup{
			domain.ProviderCardCheckout:        stripeProvider,
			domain.ProviderAlternativeCheckout: polarProvider,
		},
		Creators: map[domain.Provider]checkoutservice.Creator{
			domain.ProviderCardCheckout:        stripeProvider,
			domain.ProviderAlternativeCheckout: polarProvider,
		},
	})
	a.api = handlers.New(a.srv, handlers.Options{
		Normalizers: map[domain.Provider]webhookhandlers.Normalizer{
			domain.ProviderCardCheckout:        stripeProvider,
			domain.ProviderAlternativeCheckout: polarProvider,
		},
		AuthMiddleware: auth.NewJWTService(cfg.JWTSecret).Middleware,
		CORSOrigins:    cfg.CORSOrigins,
	})

	a.publisher = buildPublisher(cfg)
	a.dispatcher = outbox.NewDispatcher(cfg, a.repo.OutboxRepo, a.publisher)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startOutboxDispatcher(ctx)
	a.startShutdownWatcher(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully", zap.String("storage", cfg.Storage))
	return nil
}

func (a *Application) buildRepositories(ctx context.Context) (*repo.Repositories, error) {
	if a.cfg.Storage == config.StorageMemory {
		zap.L().Warn("using in-memory storage, state is lost on restart")
		return repo.NewMemory(memory.New()), nil
	}

	pool, err := getPgxpool(ctx, a.cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return nil, fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		pool.Close()
		zap.L().Error("migrations failed: ", zap.Error(err))
		return nil, fmt.Errorf("can't run migrations: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	return repo.New(pg.New(pool), pg.NewTXManager(pool)), nil
}

// buildLocker returns the redis-backed settlement lock when an address is
// configured. An unreachable redis degrades to no locking; the database
// guards still hold.
func (a *Application) buildLocker(ctx context.Context) settlementservice.Locker {
	if a.cfg.RedisAddr == "" {
		return lock.NoopLocker{}
	}
	rdb, err := lock.NewRedisClient(ctx, a.cfg.RedisAddr)
	if err != nil {
		zap.L().Warn("redis unavailable, settling without lock", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		return lock.NoopLocker{}
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return lock.NewRedisLocker(rdb, lock.DefaultTTL)
}

func buildPublisher(cfg *config.Config) outbox.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return outbox.NewLogPublisher(os.Stdout)
	}
	zap.L().Info("publishing audit records to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaAuditTopic))
	return outbox.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// startOutboxDispatcher closes the publisher only after the dispatcher has
// drained its in-flight deliveries.
func (a *Application) startOutboxDispatcher(ctx context.Context) {
	a.dispatcherDone = make(chan struct{})
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(a.dispatcherDone)
		a.dispatcher.Start(ctx)
		if err := a.publisher.Close(); err != nil {
			zap.L().Error("close audit publisher", zap.Error(err))
		}
	}()
}

// startShutdownWatcher releases the tracer and connections once ctx is done
// and the dispatcher has stopped using them.
func (a *Application) startShutdownWatcher(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		if a.dispatcherDone != nil {
			<-a.dispatcherDone
		}

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(sCtx); err != nil {
			zap.L().Error("shutdown tracing", zap.Error(err))
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
