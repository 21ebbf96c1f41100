package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	opsgin "github.com/open-rails/vipgate/adapters/gin"
	"github.com/open-rails/vipgate/adapters/telegram"
	"github.com/open-rails/vipgate/content"
	"github.com/open-rails/vipgate/core"
	"github.com/open-rails/vipgate/dispatch"
	"github.com/open-rails/vipgate/notify"
	memorylimiter "github.com/open-rails/vipgate/ratelimit/memory"
	redislimiter "github.com/open-rails/vipgate/ratelimit/redis"
	"github.com/open-rails/vipgate/storage"
	"github.com/open-rails/vipgate/vip"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := core.FromEnv()
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	if !cfg.AdminConfigured() {
		if cfg.OpenAdminFallback {
			log.Warn("no admin configured and ADMIN_OPEN_FALLBACK enabled: EVERY caller is admin")
		} else {
			log.Warn("no admin configured: all mutating commands will be rejected")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, driver, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("storage")
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migrations")
	}
	log.WithField("driver", driver).Info("storage ready")

	transport, err := telegram.New(cfg.BotToken, log)
	if err != nil {
		log.WithError(err).Fatal("telegram")
	}
	cfg.BotUsername = transport.Username()
	log.WithField("bot", cfg.BotUsername).Info("connected to telegram")

	vips := vip.NewStore(db)
	registry := content.NewStore(db)

	var notifier core.Notifier = &notify.Direct{Sender: transport}
	if cfg.NotifyQueue && driver == storage.DriverPostgres {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("notify queue pool")
		}
		defer pool.Close()
		if err := notify.MigrateQueue(ctx, pool); err != nil {
			log.WithError(err).Fatal("notify queue migrations")
		}
		queue, err := notify.NewQueue(pool, transport)
		if err != nil {
			log.WithError(err).Fatal("notify queue")
		}
		if err := queue.Start(ctx); err != nil {
			log.WithError(err).Fatal("notify queue start")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = queue.Stop(shutdownCtx)
		}()
		notifier = queue
		log.Info("durable notification queue enabled")
	}

	var limiter dispatch.RateLimiter
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis")
		}
		limiter = redislimiter.New(redis.NewClient(opt), map[string]redislimiter.Limit{
			"command": {Limit: 20, Window: time.Minute},
		})
		log.Info("redis flood limiter enabled")
	} else {
		limiter = memorylimiter.New(map[string]memorylimiter.Limit{
			"command": {Limit: 20, Window: time.Minute},
		})
	}

	d := dispatch.New(cfg, vips, registry, transport, log).
		WithNotifier(notifier).
		WithLimiter(limiter)

	sweeper := notify.NewSweeper(vips, notifier, cfg.PaymentLink, log)
	if err := sweeper.Start(cfg.ReminderSpec); err != nil {
		log.WithError(err).Fatal("reminder sweep")
	}
	defer sweeper.Stop()

	if cfg.OpsAddr != "" {
		router := opsgin.Router(db, vips, registry, cfg.OpsToken)
		go func() {
			log.WithField("addr", cfg.OpsAddr).Info("ops server listening")
			if err := http.ListenAndServe(cfg.OpsAddr, router); err != nil {
				log.WithError(err).Error("ops server")
			}
		}()
	}

	log.Info("vip video bot polling")
	if err := transport.Poll(ctx, d.HandleMessage); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("poll loop")
		os.Exit(1)
	}
	log.Info("shutting down")
}
