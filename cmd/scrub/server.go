package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/communitykit/scrub/feedcache"
	"github.com/communitykit/scrub/moderation"
	"github.com/communitykit/scrub/moderation/capi"
	"github.com/communitykit/scrub/queue"
	"github.com/communitykit/scrub/searchsync"
	"github.com/communitykit/scrub/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Config struct {
	Logger *slog.Logger

	KafkaBrokers           []string
	TopicLanguageDetect    string
	GroupLanguageDetect    string
	TopicModerationVerdict string
	GroupModerationVerdict string
	ConsumerConcurrency    int

	FanoutWorkers int
	FanoutQueue   int

	DatabaseURL      string
	MaxDBConnections int
	RedisURL         string

	SearchHosts    []string
	SearchUsername string
	SearchPassword string
	SearchIndex    string

	ModerationAPIBase  string
	LanguageDetectPath string
	RegistryBase       string
	ModerationPath     string
	APIKey             string
	UserServiceBase    string
	NotifyServiceBase  string

	FeedCacheTTL  time.Duration
	StatsInterval time.Duration
}

func configFromContext(cctx *cli.Context, logger *slog.Logger) Config {
	return Config{
		Logger:                 logger,
		KafkaBrokers:           cctx.StringSlice("kafka-brokers"),
		TopicLanguageDetect:    cctx.String("topic-language-detect"),
		GroupLanguageDetect:    cctx.String("group-language-detect"),
		TopicModerationVerdict: cctx.String("topic-moderation-verdict"),
		GroupModerationVerdict: cctx.String("group-moderation-verdict"),
		ConsumerConcurrency:    cctx.Int("consumer-concurrency"),
		FanoutWorkers:          cctx.Int("fanout-workers"),
		FanoutQueue:            cctx.Int("fanout-queue"),
		DatabaseURL:            cctx.String("database-url"),
		MaxDBConnections:       cctx.Int("max-db-connections"),
		RedisURL:               cctx.String("redis-url"),
		SearchHosts:            splitHosts(cctx.String("search-hosts")),
		SearchUsername:         cctx.String("search-username"),
		SearchPassword:         cctx.String("search-password"),
		SearchIndex:            cctx.String("search-index"),
		ModerationAPIBase:      cctx.String("moderation-api-base"),
		LanguageDetectPath:     cctx.String("language-detect-path"),
		RegistryBase:           cctx.String("registry-base"),
		ModerationPath:         cctx.String("moderation-path"),
		APIKey:                 cctx.String("api-key"),
		UserServiceBase:        cctx.String("user-service-base"),
		NotifyServiceBase:      cctx.String("notify-service-base"),
		FeedCacheTTL:           cctx.Duration("feed-cache-ttl"),
		StatsInterval:          cctx.Duration("stats-interval"),
	}
}

type Server struct {
	logger   *slog.Logger
	db       *gorm.DB
	cache    *feedcache.Cache
	fanout   *moderation.FanoutPool
	pipeline *moderation.Pipeline
	stats    *moderation.OpStats

	consumers     []*queue.Consumer
	statsInterval time.Duration
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := setupDatabase(config.DatabaseURL, config.MaxDBConnections)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	escli, err := searchsync.NewESClient(config.SearchHosts, config.SearchUsername, config.SearchPassword)
	if err != nil {
		return nil, err
	}
	search := searchsync.NewClient(escli, logger)

	loader := func(ctx context.Context, communityID string, page, pageSize int) (any, error) {
		return search.CommunityPage(ctx, config.SearchIndex, communityID, page, pageSize)
	}
	cache, err := feedcache.New(config.RedisURL, config.FeedCacheTTL, loader, logger)
	if err != nil {
		return nil, err
	}

	modClient := &capi.Client{
		Host:               config.ModerationAPIBase,
		LanguageDetectPath: config.LanguageDetectPath,
		RegistryHost:       config.RegistryBase,
		ModerationPath:     config.ModerationPath,
		APIKey:             config.APIKey,
		Logger:             logger,
	}

	stats := &moderation.OpStats{}
	fanout := moderation.NewFanoutPool(config.FanoutWorkers, config.FanoutQueue, logger)

	pipeline := &moderation.Pipeline{
		Logger:      logger.With("system", "moderation"),
		Discussions: store.NewDiscussionStore(db, stats),
		Replies:     store.NewReplyStore(db, stats),
		Search:      search,
		Cache:       cache,
		Users: &capi.UserClient{
			Host:       config.UserServiceBase,
			APIKey:     config.APIKey,
			HTTPClient: capi.RobustHTTPClient(),
		},
		Notifier: &capi.NotifyClient{
			Host:       config.NotifyServiceBase,
			APIKey:     config.APIKey,
			HTTPClient: capi.RobustHTTPClient(),
		},
		Detector:    modClient,
		Dispatcher:  modClient,
		Fanout:      fanout,
		SearchIndex: config.SearchIndex,
	}

	consumers := []*queue.Consumer{
		{
			Brokers:     config.KafkaBrokers,
			Topic:       config.TopicLanguageDetect,
			GroupID:     config.GroupLanguageDetect,
			Concurrency: config.ConsumerConcurrency,
			Handler:     pipeline.HandleContentEvent,
			Logger:      logger,
		},
		{
			Brokers:     config.KafkaBrokers,
			Topic:       config.TopicModerationVerdict,
			GroupID:     config.GroupModerationVerdict,
			Concurrency: config.ConsumerConcurrency,
			Handler:     pipeline.HandleVerdict,
			Logger:      logger,
		},
	}

	return &Server{
		logger:        logger,
		db:            db,
		cache:         cache,
		fanout:        fanout,
		pipeline:      pipeline,
		stats:         stats,
		consumers:     consumers,
		statsInterval: config.StatsInterval,
	}, nil
}

// Run consumes both topics until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.runStatsReporter(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		c := c
		eg.Go(func() error { return c.Run(ctx) })
	}
	return eg.Wait()
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// runStatsReporter logs the store operation stats once per interval and
// resets the accumulator.
func (s *Server) runStatsReporter(ctx context.Context) {
	if s.statsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, elapsed := s.stats.Snapshot()
			if count > 0 {
				s.logger.Info("store operation stats", "operations", count, "totalElapsed", elapsed.String())
			}
		}
	}
}

// Shutdown drains the fan-out pool, bounded by ctx, then closes the shared
// handles. Consumers are expected to have been cancelled already.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.fanout.ShutdownContext(ctx); err != nil {
		s.logger.Warn("gave up draining fan-out pool", "err", err)
	}

	if err := s.cache.Close(); err != nil {
		s.logger.Error("error closing redis client", "err", err)
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		s.logger.Error("error getting sql db handle", "err", err)
		return err
	}
	if err := sqlDB.Close(); err != nil {
		s.logger.Error("error closing database", "err", err)
		return err
	}
	s.logger.Info("shutdown complete")
	return nil
}
