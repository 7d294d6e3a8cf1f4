package app

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/collector"
	"github.com/newthinker/chartdesk/internal/collector/crypto"
	"github.com/newthinker/chartdesk/internal/collector/crypto/binance"
	"github.com/newthinker/chartdesk/internal/collector/crypto/coingecko"
	"github.com/newthinker/chartdesk/internal/collector/ratelimit"
	"github.com/newthinker/chartdesk/internal/collector/yahoo"
	"github.com/newthinker/chartdesk/internal/commentary"
	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/llm/factory"
	"github.com/newthinker/chartdesk/internal/market"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/newthinker/chartdesk/internal/notifier/telegram"
	"github.com/newthinker/chartdesk/internal/notifier/webhook"
	"github.com/newthinker/chartdesk/internal/storage/archive"
	"github.com/newthinker/chartdesk/internal/storage/barcache"
)

// commentaryTimeout bounds a single LLM call.
const commentaryTimeout = 60 * time.Second

// Build assembles an App from configuration: collectors with their
// cache, notifiers, the chart archive and the commentary provider.
// reg may be nil.
func Build(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []Option{WithMetrics(reg)}
	if cfg.UniverseFile != "" {
		u, err := market.LoadUniverse(cfg.UniverseFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithUniverse(u))
	}
	a := New(cfg, logger, opts...)

	if err := a.wireCollectors(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireNotifiers(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireArchive(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireCommentary(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wireCollectors() error {
	yc := a.cfg.Collectors.Yahoo
	policy := ratelimit.DefaultPolicy()
	if yc.MaxAttempts > 0 {
		policy.MaxAttempts = yc.MaxAttempts
	}
	if yc.InitialBackoff > 0 {
		policy.InitialInterval = yc.InitialBackoff
	}

	yopts := []yahoo.Option{
		yahoo.WithRetryPolicy(policy),
		yahoo.WithLogger(a.logger.Named("yahoo")),
	}
	if yc.ChartURL != "" || yc.QuoteURL != "" {
		yopts = append(yopts, yahoo.WithEndpoints(yc.ChartURL, yc.QuoteURL))
	}
	if yc.RequestsPerSecond > 0 {
		yopts = append(yopts, yahoo.WithLimiter(ratelimit.NewLimiter("yahoo", yc.RequestsPerSecond, yc.Burst)))
	}
	if yc.Timeout > 0 {
		yopts = append(yopts, yahoo.WithTimeout(yc.Timeout))
	}
	y := yahoo.New(yopts...)

	cache, err := a.barCache()
	if err != nil {
		return err
	}
	wrap := func(c collector.Collector) collector.Collector {
		if cache == nil {
			return c
		}
		return collector.NewCaching(c, cache, a.cfg.Cache.TTL, a.logger.Named("cache"))
	}

	a.RegisterCollector(wrap(y))

	cc := a.cfg.Collectors.Crypto
	if !cc.Enabled {
		return nil
	}
	var providers []crypto.Provider
	for _, name := range cc.Providers {
		switch name {
		case "coingecko":
			providers = append(providers, coingecko.New(cc.CoinGeckoAPIKey))
		case "binance":
			providers = append(providers, binance.New())
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown crypto provider %q", name))
		}
	}
	cr := crypto.New(y, providers...)
	cr.SetLogger(a.logger.Named("crypto"))
	a.RegisterCollector(wrap(cr))
	a.RouteClass(core.AssetCrypto, cr.Name())
	return nil
}

func (a *App) barCache() (barcache.Cache, error) {
	switch a.cfg.Cache.Type {
	case "":
		return nil, nil
	case "memory":
		c := barcache.NewMemoryCache(0)
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "sqlite":
		c, err := barcache.NewSQLiteCache(a.cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cache type %q", a.cfg.Cache.Type))
	}
}

func (a *App) wireNotifiers() error {
	names := make([]string, 0, len(a.cfg.Notifiers))
	for name := range a.cfg.Notifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nc := a.cfg.Notifiers[name]
		if !nc.Enabled {
			continue
		}
		switch name {
		case "telegram":
			t, err := telegram.New(nc.BotToken, nc.ChatID)
			if err != nil {
				return core.WrapError(core.ErrConfigInvalid, err)
			}
			if err := a.RegisterNotifier(t); err != nil {
				return err
			}
		case "webhook":
			w, err := webhook.New(nc.URL, nc.Headers)
			if err != nil {
				return core.WrapError(core.ErrConfigInvalid, err)
			}
			if err := a.RegisterNotifier(w); err != nil {
				return err
			}
		default:
			a.logger.Warn("unknown notifier ignored", zap.String("name", name))
		}
	}
	return nil
}

func (a *App) wireArchive() error {
	ac := a.cfg.Archive
	if !ac.Enabled {
		return nil
	}

	var store archive.Storage
	switch ac.Type {
	case "", "localfs":
		fs, err := archive.NewLocalFS(ac.Path)
		if err != nil {
			return err
		}
		store = fs
	case "s3":
		s, err := archive.NewS3(archive.S3Config{
			Bucket:    ac.S3.Bucket,
			Endpoint:  ac.S3.Endpoint,
			Region:    ac.S3.Region,
			AccessKey: ac.S3.AccessKey,
			SecretKey: ac.S3.SecretKey,
			Prefix:    ac.S3.Prefix,
		})
		if err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		store = s
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", ac.Type))
	}
	a.SetArchive(archive.NewCharts(store, a.logger.Named("archive")))
	return nil
}

func (a *App) wireCommentary() error {
	provider, err := factory.New(a.cfg.LLM)
	if err != nil {
		return err
	}
	if provider == nil {
		return nil
	}
	a.SetCommentary(commentary.NewWriter(provider, commentaryTimeout, a.logger.Named("commentary")))
	return nil
}
