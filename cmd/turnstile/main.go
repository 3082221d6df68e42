package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lettercraft/lettercraft/directory"
	"github.com/lettercraft/lettercraft/usagegate"
	"github.com/lettercraft/lettercraft/usagegate/cachestore"
	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/ratelimit"
	"github.com/lettercraft/lettercraft/usagegate/rollout"
	"github.com/lettercraft/lettercraft/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "turnstile",
		Usage:   "usage-gating daemon (admits template generations)",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/turnstile/gate.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for caches, quota counters, and rate limits; empty runs in-process stores",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":8600",
			EnvVars: []string{"TURNSTILE_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":8601",
			EnvVars: []string{"TURNSTILE_METRICS_LISTEN"},
		},
		&cli.Int64Flag{
			Name:    "rate-limit-per-minute",
			Usage:   "max generations per user per minute (0 for unlimited)",
			Value:   10,
			EnvVars: []string{"TURNSTILE_RATE_LIMIT_PER_MINUTE"},
		},
		&cli.Int64Flag{
			Name:    "rate-limit-per-day",
			Usage:   "max generations per user per day (0 for unlimited)",
			Value:   500,
			EnvVars: []string{"TURNSTILE_RATE_LIMIT_PER_DAY"},
		},
		&cli.BoolFlag{
			Name:    "rollout-enabled",
			Usage:   "master kill-switch for the v2 generation pipeline",
			Value:   true,
			EnvVars: []string{"ROLLOUT_V2_ENABLED"},
		},
		&cli.IntFlag{
			Name:    "rollout-percentage",
			Usage:   "percentage of organizations (0-100) served the v2 pipeline",
			Value:   0,
			EnvVars: []string{"ROLLOUT_V2_PERCENTAGE"},
		},
		&cli.BoolFlag{
			Name:    "rollout-fallback-on-error",
			Usage:   "whether handlers should retry failed v2 generations on v1",
			Value:   true,
			EnvVars: []string{"ROLLOUT_V2_FALLBACK_ON_ERROR"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("turnstile"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		dir, err := directory.NewGormDirectory(db)
		if err != nil {
			return err
		}

		// The cache tier is strictly optional: if redis is configured but
		// unreachable, log and run degraded (every read goes to the
		// database) rather than refusing to start.
		var cache cachestore.CacheStore
		var quotas quotastore.QuotaStore
		var limiter ratelimit.Limiter
		if redisURL := cctx.String("redis-url"); redisURL != "" {
			csh, err := cachestore.NewRedisCacheStore(redisURL, 10_000, 10*time.Minute)
			if err != nil {
				logger.Error("initializing redis cachestore failed, running without entity caches", "err", err)
			} else {
				cache = csh
			}
			qs, err := quotastore.NewRedisQuotaStore(redisURL)
			if err != nil {
				logger.Error("initializing redis quotastore failed, running without quota cache", "err", err)
			} else {
				quotas = qs
			}
			lim, err := ratelimit.NewRedisLimiter(redisURL)
			if err != nil {
				logger.Error("initializing redis rate limiter failed, running without rate limits", "err", err)
			} else {
				limiter = lim
			}
		} else {
			logger.Info("redis not configured, using in-process stores")
			cache = cachestore.NewMemCacheStore(10_000, 10*time.Minute)
			quotas = quotastore.NewMemQuotaStore()
			limiter = ratelimit.NewMemLimiter()
		}

		engine := &usagegate.Engine{
			Logger:    logger,
			Directory: dir,
			Cache:     cache,
			Quotas:    quotas,
			Limiter:   limiter,
			Rollout:   rollout.NewChooser(logger, dir),
			// flags are read fresh on every decision, so env/config changes
			// take effect without restarting request handling
			Flags: func() rollout.Flags {
				return rollout.Flags{
					Enabled:         cctx.Bool("rollout-enabled"),
					Percentage:      cctx.Int("rollout-percentage"),
					FallbackOnError: cctx.Bool("rollout-fallback-on-error"),
				}
			},
			RateLimitPerMinute: cctx.Int64("rate-limit-per-minute"),
			RateLimitPerDay:    cctx.Int64("rate-limit-per-day"),
		}

		srv, err := NewServer(engine, dir, Config{
			Bind:   cctx.String("bind"),
			Logger: logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		return srv.RunAPI()
	},
}
