package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "scrub",
		Usage:   "discussion content moderation pipeline daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "kafka bootstrap broker addresses",
			Value:   cli.NewStringSlice("localhost:9092"),
			EnvVars: []string{"KAFKA_BROKERS"},
		},
		&cli.StringFlag{
			Name:    "topic-language-detect",
			Usage:   "topic carrying submitted content for language detection",
			Value:   "content-for-language-detection",
			EnvVars: []string{"TOPIC_LANGUAGE_DETECT"},
		},
		&cli.StringFlag{
			Name:    "group-language-detect",
			Usage:   "consumer group for the language-detection topic",
			Value:   "scrub-language-detect",
			EnvVars: []string{"GROUP_LANGUAGE_DETECT"},
		},
		&cli.StringFlag{
			Name:    "topic-moderation-verdict",
			Usage:   "topic carrying moderation verdicts",
			Value:   "content-moderation-verdict",
			EnvVars: []string{"TOPIC_MODERATION_VERDICT"},
		},
		&cli.StringFlag{
			Name:    "group-moderation-verdict",
			Usage:   "consumer group for the verdict topic",
			Value:   "scrub-moderation-verdict",
			EnvVars: []string{"GROUP_MODERATION_VERDICT"},
		},
		&cli.IntFlag{
			Name:    "consumer-concurrency",
			Usage:   "number of group readers per topic",
			Value:   4,
			EnvVars: []string{"SCRUB_CONSUMER_CONCURRENCY"},
		},
		&cli.IntFlag{
			Name:    "fanout-workers",
			Usage:   "worker count for the verdict side-effect pool",
			Value:   8,
			EnvVars: []string{"SCRUB_FANOUT_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "fanout-queue",
			Usage:   "bounded queue depth for the verdict side-effect pool",
			Value:   1000,
			EnvVars: []string{"SCRUB_FANOUT_QUEUE"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/scrub/scrub.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for feed caches",
			Value:   "redis://localhost:6379/0",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "search-hosts",
			Usage:   "opensearch hosts (schema/host/port), comma separated",
			Value:   "http://localhost:9200",
			EnvVars: []string{"ES_HOSTS", "SEARCH_HOSTS"},
		},
		&cli.StringFlag{
			Name:    "search-username",
			Value:   "admin",
			EnvVars: []string{"ES_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "search-password",
			Value:   "admin",
			EnvVars: []string{"ES_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "search-index",
			Usage:   "index for denormalized discussion documents",
			Value:   "discussions",
			EnvVars: []string{"SEARCH_INDEX"},
		},
		&cli.StringFlag{
			Name:    "moderation-api-base",
			Usage:   "base URL of the content moderation service",
			EnvVars: []string{"MODERATION_API_BASE"},
		},
		&cli.StringFlag{
			Name:    "language-detect-path",
			Value:   "v1/language/detect",
			EnvVars: []string{"LANGUAGE_DETECT_PATH"},
		},
		&cli.StringFlag{
			Name:    "registry-base",
			Usage:   "base URL of the service registry fronting text moderation",
			EnvVars: []string{"REGISTRY_BASE"},
		},
		&cli.StringFlag{
			Name:    "moderation-path",
			Value:   "v1/text/moderation",
			EnvVars: []string{"MODERATION_PATH"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key sent in the Authorization header of outbound calls",
			EnvVars: []string{"SCRUB_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "user-service-base",
			Usage:   "base URL of the user profile service",
			EnvVars: []string{"USER_SERVICE_BASE"},
		},
		&cli.StringFlag{
			Name:    "notify-service-base",
			Usage:   "base URL of the notification service",
			EnvVars: []string{"NOTIFY_SERVICE_BASE"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to serve prometheus metrics on",
			Value:   ":3998",
			EnvVars: []string{"SCRUB_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "feed-cache-ttl",
			Value:   30 * time.Minute,
			EnvVars: []string{"FEED_CACHE_TTL"},
		},
		&cli.DurationFlag{
			Name:    "stats-interval",
			Usage:   "interval for the store operation stats log line",
			Value:   time.Minute,
			EnvVars: []string{"SCRUB_STATS_INTERVAL"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation pipeline daemon",
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(configFromContext(cctx, logger))
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()

		runCtx, cancel := context.WithCancel(context.Background())
		runDone := make(chan error, 1)
		go func() {
			runDone <- srv.Run(runCtx)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down")
		cancel()

		// consumers must stop handing messages to the pipeline before the
		// server tears the fan-out pool down
		if err := <-runDone; err != nil {
			logger.Error("consumer error", "err", err)
		}

		ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(ctx)
	},
}
