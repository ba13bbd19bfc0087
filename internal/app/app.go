package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"taskapi/internal/cache"
	"taskapi/internal/config"
	"taskapi/internal/repo"
	"taskapi/internal/service"
	"taskapi/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// New connects the configured store and cache and builds the router.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	ctx := context.Background()

	var taskRepo repo.TaskRepo
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory task store; data is lost on restart")
		taskRepo = repo.NewMemTaskRepo()
	default:
		if cfg.PG.Migrate {
			if err := migrations.Up(cfg.PG.DSN); err != nil {
				return nil, err
			}
			log.Info("migrations applied")
		}
		db, err := connectPostgres(ctx, cfg.PG)
		if err != nil {
			return nil, err
		}
		a.db = db
		taskRepo = repo.NewPGTaskRepo(repo.NewGateway(db))
	}

	var listCache service.ListCache
	if cfg.Redis.Enabled() {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.redis = rdb
		listCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	} else {
		log.Info("redis not configured, task list cache disabled")
	}

	taskSvc := service.NewTaskService(taskRepo, listCache, log)
	a.router = newRouter(cfg, log, taskSvc)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	a.closeStores()
	return nil
}

func (a *App) closeStores() {
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// NewLogger returns a JSON logger on w at the configured level.
func NewLogger(cfg config.AppConfig, w io.Writer) *slog.Logger {
	lvl, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})).
		With(slog.String("env", cfg.Env), slog.String("version", cfg.Version))
}

// connectPostgres opens the task store pool and fails fast if the server does not answer.
func connectPostgres(ctx context.Context, cfg config.PGConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	pcfg.MaxConns = cfg.MaxConns
	pcfg.MinConns = cfg.MinConns
	pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime.Duration()
	pcfg.MaxConnLifetime = cfg.MaxConnLifetime.Duration()

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pingWithin(ctx, cfg.PingTimeout.Duration(), pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

// connectRedis returns a client for the list cache once it answers a PING.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := pingWithin(ctx, cfg.PingTimeout.Duration(), ping); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// pingWithin runs ping under timeout d; d <= 0 means no extra bound.
func pingWithin(ctx context.Context, d time.Duration, ping func(context.Context) error) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return ping(ctx)
}

func newRouter(cfg config.Config, log *slog.Logger, svc *service.TaskService) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, log, svc)
	return r
}
