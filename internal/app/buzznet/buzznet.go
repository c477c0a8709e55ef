package buzznet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/buzznet/internal/cache"
	"github.com/magabrotheeeer/buzznet/internal/config"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/health"
	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/lib/jwt"
	"github.com/magabrotheeeer/buzznet/internal/lib/metrics"
	"github.com/magabrotheeeer/buzznet/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/migrations"
	authservice "github.com/magabrotheeeer/buzznet/internal/services/auth"
	postservice "github.com/magabrotheeeer/buzznet/internal/services/post"
	"github.com/magabrotheeeer/buzznet/internal/storage/repository"
)

// App — HTTP-сервер со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	amqp   *amqp.Connection
}

// New подключается к хранилищам, применяет миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.buzznet.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var events *rabbitmq.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, 5, 2*time.Second)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = rabbitmq.NewPublisher(ch, cfg.Exchange)
	} else {
		logger.Info("rabbitmq url is empty, events are disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, jwt.TokenTTL)

	authService := authservice.NewAuthService(logger, db, jwtMaker, eventPublisher(events), m)
	postService := postservice.NewService(db, db, cacheRedis, postEventPublisher(events), m, logger, cfg.PostTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:            authService,
		Posts:           postService,
		LoginLimiter:    middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst),
		RegisterLimiter: middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst),
		Pingers: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
		Gatherer: prometheus.DefaultGatherer,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// eventPublisher не дает типизированному nil попасть в интерфейс.
func eventPublisher(p *rabbitmq.Publisher) authservice.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func postEventPublisher(p *rabbitmq.Publisher) postservice.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
