package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roomio/roomio/internal/app"
	"github.com/roomio/roomio/internal/billing"
	"github.com/roomio/roomio/internal/billing/api"
	"github.com/roomio/roomio/internal/billing/state"
	"github.com/roomio/roomio/internal/observability"
	"github.com/roomio/roomio/internal/platform/cache"
	"github.com/roomio/roomio/internal/tokenstore"
)

// runtime is the wiring shared by the commands.
type runtime struct {
	cfg       *app.Config
	logger    *slog.Logger
	redis     *redis.Client
	tokens    *tokenstore.Store
	tokenName string
	metrics   *observability.Metrics
	client    *api.Client
	ops       *state.Operations
}

type runtimeOptions struct {
	// gateway makes the client prefer the caller's token from the request context.
	gateway bool
	metrics bool
}

func newRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	billing.SetLocation(cfg.BillingLocation())
	rt := &runtime{cfg: cfg, logger: app.NewLogger(cfg), tokenName: cfg.TokenKey}
	if name, _ := cmd.Flags().GetString("token-name"); name != "" {
		rt.tokenName = name
	}
	if opts.metrics {
		rt.metrics = observability.NewMetrics()
	}

	var tokens api.TokenSource
	if flagToken, _ := cmd.Flags().GetString("token"); flagToken != "" {
		tokens = api.StaticToken(flagToken)
	} else {
		if err := rt.openTokens(cmd.Context()); err != nil {
			return nil, err
		}
		tokens = rt.tokens.Source(rt.tokenName)
	}
	if opts.gateway {
		tokens = api.ContextToken{Fallback: tokens}
	}

	var recorder api.CallRecorder
	if rt.metrics != nil {
		recorder = rt.metrics
	}
	rt.client, err = api.NewClient(api.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		Tokens:   tokens,
		Logger:   rt.logger,
		Recorder: recorder,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.ops = state.NewOperations(state.NewStore(), rt.client, rt.logger, cfg.PageSize)
	return rt, nil
}

// openTokens connects to redis and opens the token store.
func (rt *runtime) openTokens(ctx context.Context) error {
	if rt.tokens != nil {
		return nil
	}
	rdb, err := cache.New(ctx, cache.Options{
		Addr:     rt.cfg.RedisAddr,
		Password: rt.cfg.RedisPassword,
		DB:       rt.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	store, err := tokenstore.Open(ctx, rdb, tokenstore.Options{
		Secret: rt.cfg.TokenSecret,
		TTL:    rt.cfg.TokenTTL,
		Logger: rt.logger,
	})
	if err != nil {
		_ = rdb.Close()
		return fmt.Errorf("open token store: %w", err)
	}
	rt.redis, rt.tokens = rdb, store
	return nil
}

// Close releases the redis connection.
func (rt *runtime) Close() {
	if rt == nil || rt.redis == nil {
		return
	}
	if err := rt.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		rt.logger.Warn("redis close", slog.Any("error", err))
	}
}
