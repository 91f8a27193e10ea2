// Package app assembles the analysis service and its adapters from config.
// The HTTP server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/application"
	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	appmedia "github.com/bryanwahyu/storelens/internal/application/media"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/config"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/infra/ai/openai"
	"github.com/bryanwahyu/storelens/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/storelens/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/storelens/internal/infra/db/postgres"
	"github.com/bryanwahyu/storelens/internal/infra/db/sqlite"
	"github.com/bryanwahyu/storelens/internal/infra/executor/ffmpeg"
	"github.com/bryanwahyu/storelens/internal/infra/export"
	"github.com/bryanwahyu/storelens/internal/infra/notify"
	"github.com/bryanwahyu/storelens/internal/infra/storage"
	"github.com/bryanwahyu/storelens/internal/middleware"
)

// Reports is a report repository that can report its own health.
type Reports interface {
	analysis.ReportRepository
	Ping(ctx context.Context) error
}

// App holds the assembled service plus what the outer layers need.
type App struct {
	Service *appanalysis.Service
	Objects *storage.Store // nil when minio is disabled
	Health  map[string]middleware.HealthChecker
	Ready   map[string]middleware.HealthChecker

	closers []func() error
}

// Options override parts of the configuration for one process.
type Options struct {
	Clock application.Clock // defaults to the system clock
}

// Build wires every adapter named in cfg. On error, whatever was opened is closed.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (_ *App, err error) {
	a := &App{
		Health: map[string]middleware.HealthChecker{},
		Ready:  map[string]middleware.HealthChecker{},
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	clock := opts.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}

	reports, err := a.openReports(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.Health["database"] = middleware.PingChecker{P: reports}
	a.Ready["database"] = middleware.PingChecker{P: reports}

	renderer, err := export.NewRenderer()
	if err != nil {
		return nil, err
	}

	var (
		source   media.Source
		exporter analysis.Exporter
	)
	if cfg.Minio.Enabled {
		m := cfg.Minio
		objects, err := storage.New(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL, log)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		a.Objects = objects
		a.Health["minio"] = middleware.PingChecker{P: objects}
		source = objects
		exporter = export.NewObjectExporter(objects, renderer)
	} else {
		source = storage.NewLocalSource(cfg.Media.LocalRoot)
		exporter = export.NewFileExporter(cfg.Export.Dir, renderer)
	}

	var features media.FeatureCache
	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(cache.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		rc := cache.NewRedisFeatureCache(client, cfg.Redis.TTL)
		if err := rc.Ping(ctx); err != nil {
			// the cache is an optimization; runs still work without it
			log.Warn("redis unreachable at startup", zap.Error(err))
		}
		a.Health["redis"] = middleware.PingChecker{P: rc}
		features = rc
	} else {
		features = cache.NewMemoryFeatureCache()
	}

	var sampler media.FrameSampler
	if s := ffmpeg.NewSampler(cfg.Media.FFmpegPath, cfg.Media.WorkDir, cfg.Server.MaxUploadMB<<20, log); s.Available() {
		sampler = s
	} else {
		log.Warn("ffmpeg not found, videos will be skipped", zap.String("binary", cfg.Media.FFmpegPath))
	}

	extractor := appmedia.NewExtractor(source, features, sampler, appmedia.Config{
		FrameRate:   cfg.Media.FrameRate,
		MaxFrames:   cfg.Media.MaxFrames,
		GridRows:    cfg.Media.GridRows,
		GridCols:    cfg.Media.GridCols,
		MaxParallel: cfg.Media.MaxParallel,
	}, log)

	client := remoteClient(cfg.AI, log)

	notifier, err := newNotifier(ctx, cfg.Notify, log)
	if err != nil {
		return nil, err
	}

	prompts := prompt.NewBuilder(cfg.AI.Language, cfg.AI.ForbiddenWords)
	fallback := appanalysis.NewFallbackEngine(cfg.Analysis.FallbackConfidence, clock)
	a.Service = &appanalysis.Service{
		Validator: appanalysis.NewValidator(*cfg.Analysis.Thresholds),
		Extractor: extractor,
		Prompts:   prompts,
		Client:    client,
		Fallback:  fallback,
		Panel: &appanalysis.Panel{
			Client:      client,
			Prompts:     prompts,
			Fallback:    fallback,
			Personas:    cfg.Analysis.Personas,
			MaxParallel: cfg.Analysis.MaxParallel,
			Clock:       clock,
			Log:         log,
		},
		Synth:       appanalysis.NewSynthesizer(cfg.Analysis.Weights, clock),
		Reports:     reports,
		Exporter:    exporter,
		Notifier:    notifier,
		Clock:       clock,
		Log:         log,
		MaxParallel: cfg.Analysis.MaxParallel,
		Remote: appanalysis.RemoteConfidence{
			Min: cfg.Analysis.RemoteConfidenceMin,
			Max: cfg.Analysis.RemoteConfidenceMax,
		},
	}
	return a, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openReports(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (Reports, error) {
	switch c.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, mysqlp.Options{
			Host: c.Host, Port: c.Port, User: c.User, Password: c.Password, Name: c.Name,
		}.DSN())
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := mysqlp.NewReportRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("mysql migrate: %w", err)
		}
		log.Info("report store ready", zap.String("driver", "mysql"), zap.String("host", c.Host))
		return repo, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, postgresp.Options{
			Host: c.Host, Port: c.Port, User: c.User, Password: c.Password, Name: c.Name, SSLMode: c.SSLMode,
		}.DSN())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := postgresp.NewReportRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		log.Info("report store ready", zap.String("driver", "postgres"), zap.String("host", c.Host))
		return repo, nil
	default:
		repo, err := sqlite.Open(c.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		log.Info("report store ready", zap.String("driver", "sqlite"), zap.String("path", c.Path))
		return repo, nil
	}
}

func remoteClient(c config.AIConfig, log *zap.Logger) ai.Client {
	if c.APIKey == "" {
		log.Warn("no AI API key configured, every section uses the rule-based fallback")
		return ai.Offline{}
	}
	tiers := make(map[store.Tier]openai.TierModel, len(c.Tiers))
	for name, m := range c.Tiers {
		tiers[store.Tier(name)] = openai.TierModel{Model: m.Model, MaxTokens: m.MaxTokens}
	}
	return openai.NewClient(openai.Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		Temperature: c.Temperature,
		Tiers:       tiers,
	}, log)
}

func newNotifier(ctx context.Context, c config.NotifyConfig, log *zap.Logger) (analysis.Notifier, error) {
	switch c.Provider {
	case "smtp":
		sender := notify.NewSMTPSender(c.SMTP.Host, c.SMTP.Port, c.SMTP.Username, c.SMTP.Password, c.From)
		return notify.NewEmailNotifier(sender, c.DefaultRecipient, log), nil
	case "ses":
		sender, err := notify.NewSESSender(ctx, c.SES.Region, c.From)
		if err != nil {
			return nil, fmt.Errorf("ses: %w", err)
		}
		return notify.NewEmailNotifier(sender, c.DefaultRecipient, log), nil
	default:
		return notify.NewLogNotifier(log), nil
	}
}
