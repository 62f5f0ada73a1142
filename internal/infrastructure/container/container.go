package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/delivery/http"
	"github.com/grapeapp/grape-backend/internal/delivery/http/handler"
	"github.com/grapeapp/grape-backend/internal/delivery/http/middleware"
	"github.com/grapeapp/grape-backend/internal/infrastructure/database"
	"github.com/grapeapp/grape-backend/internal/infrastructure/identity"
	"github.com/grapeapp/grape-backend/internal/infrastructure/mailer"
	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/infrastructure/server"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
	"github.com/grapeapp/grape-backend/internal/repository/postgres"
	"github.com/grapeapp/grape-backend/internal/usecase/auth"
	"github.com/grapeapp/grape-backend/internal/usecase/chat"
	"github.com/grapeapp/grape-backend/internal/usecase/like"
	"github.com/grapeapp/grape-backend/internal/usecase/match"
	"github.com/grapeapp/grape-backend/internal/usecase/notification"
	"github.com/grapeapp/grape-backend/internal/usecase/profile"
)

const codeSweepInterval = time.Minute

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	DB      *sqlx.DB
	Redis   *redis.Client
	Store   repository.Store
	Server  *server.Server
	Hub     *realtime.Hub
	Metrics *telemetry.Metrics

	broker        *realtime.RedisBroker
	codes         *identity.MemoryCodeStore
	traceShutdown func(context.Context) error
	cancel        context.CancelFunc
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	traceShutdown, err := telemetry.InitTracing(cfg, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.traceShutdown = traceShutdown
	c.Metrics = telemetry.NewMetrics()

	// Initialize storage
	switch cfg.Storage.Type {
	case config.StorageTypePostgres:
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		c.Store = postgres.NewStore(db)
	default:
		logger.Warn("using in-memory storage, data is lost on restart")
		c.Store = memory.NewStore()
	}

	// Initialize Redis
	if cfg.Redis.Enabled() {
		client, err := database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = client
		c.broker = realtime.NewRedisBroker(client)
	}

	verifier, err := c.newVerifier(ctx)
	if err != nil {
		return nil, err
	}

	// Realtime: the broker shares connections between instances when Redis is
	// available, otherwise the local hub is the only transport.
	var (
		publisher realtime.Publisher
		presence  realtime.Presence
	)
	if c.broker != nil {
		c.Hub = realtime.NewHub(c.broker)
		publisher, presence = c.broker, c.broker
	} else {
		c.Hub = realtime.NewHub(nil)
		publisher, presence = c.Hub, c.Hub
	}

	var push *realtime.WebPushSender
	if cfg.WebPush.Enabled() {
		push = realtime.NewWebPushSender(c.Store.PushSubscriptions(), &cfg.WebPush)
	} else {
		logger.Info("web push disabled, VAPID keys not configured")
	}
	notifier := realtime.NewDispatcher(publisher, presence, push)

	// Initialize use cases
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)
	authUseCase := auth.NewAuthUseCase(c.Store.Users(), verifier, tokens, c.Metrics)
	profileUseCase := profile.NewProfileUseCase(c.Store)
	matchUseCase := match.NewMatchUseCase(c.Store, notifier, c.Metrics)
	likeUseCase := like.NewLikeUseCase(
		c.Store,
		match.NewReconciler(c.Metrics),
		matchUseCase,
		notifier,
		c.Metrics,
	)
	chatUseCase := chat.NewChatUseCase(c.Store, notifier, c.Metrics)

	vapidKey := ""
	if push != nil {
		vapidKey = push.PublicKey()
	}
	notificationUseCase := notification.NewNotificationUseCase(c.Store.PushSubscriptions(), vapidKey)

	// Initialize handlers
	handler.SetRedactErrors(cfg.Server.IsProduction())
	router := http.NewRouter(
		handler.NewAuthHandler(authUseCase),
		handler.NewUserHandler(profileUseCase),
		handler.NewLikeHandler(likeUseCase),
		handler.NewMatchHandler(matchUseCase),
		handler.NewChatHandler(chatUseCase),
		handler.NewPushHandler(notificationUseCase),
		handler.NewWSHandler(c.Hub, tokens, cfg.Server.AllowedOrigins),
		middleware.NewAuthMiddleware(tokens),
		middleware.NewIPRateLimiter(cfg.RateLimit.OTPPerMinute, cfg.RateLimit.OTPBurst),
		c.Metrics,
		http.Options{
			ServiceName:    cfg.Telemetry.ServiceName,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Tracing:        cfg.Telemetry.TracingEnabled,
		},
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup())

	ok = true
	return c, nil
}

// newVerifier builds the OTP gateway: Firebase for phone numbers when an API
// key is set, and emailed codes stored in Redis or in memory.
func (c *Container) newVerifier(ctx context.Context) (identity.Gateway, error) {
	cfg := c.Config

	var store identity.CodeStore
	if c.Redis != nil {
		store = identity.NewRedisCodeStore(c.Redis)
	} else {
		c.codes = identity.NewMemoryCodeStore()
		store = c.codes
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.SMTP.Enabled() {
		smtp, err := mailer.NewSMTPSender(&cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mailer: %w", err)
		}
		sender = smtp
	} else {
		logger.Warn("SMTP not configured, email codes are written to the log")
	}

	var phone identity.Gateway
	if cfg.Firebase.APIKey != "" {
		fb, err := identity.NewFirebaseGateway(ctx, &cfg.Firebase)
		if err != nil {
			return nil, err
		}
		phone = fb
	} else {
		logger.Warn("FIREBASE_API_KEY not set, phone verification disabled")
	}

	email := identity.NewEmailGateway(store, sender, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
	return identity.NewRouter(phone, email, cfg.OTP.Timeout), nil
}

// RunBackground starts the Redis subscriber and periodic cleanup. They stop
// when ctx is cancelled or Close is called.
func (c *Container) RunBackground(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	if c.broker != nil {
		go func() {
			for {
				err := c.broker.Run(ctx, c.Hub)
				if ctx.Err() != nil {
					return
				}
				logger.Error("notification subscriber stopped, restarting", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}()
	}

	if c.codes != nil {
		go func() {
			ticker := time.NewTicker(codeSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.codes.Sweep()
				}
			}
		}()
	}
}

// Close closes all connections
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.Hub != nil {
		c.Hub.Close()
	}

	var errs []error
	if c.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.traceShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}

	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}

	// Close database
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
