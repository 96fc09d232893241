package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/clarus/internal/api/handler"
	"github.com/kiranshivaraju/clarus/internal/app"
	"github.com/kiranshivaraju/clarus/internal/backend"
	"github.com/kiranshivaraju/clarus/internal/cache"
	"github.com/kiranshivaraju/clarus/internal/config"
	"github.com/kiranshivaraju/clarus/internal/poller"
	"github.com/kiranshivaraju/clarus/internal/session"
)

// runtime is everything one command invocation works with.
type runtime struct {
	cfg     *config.Config
	session *session.Session
	app     *app.App
	redis   *cache.RedisCache
}

func newRuntime(ctx context.Context, c *config.Config, observer app.Observer) (*runtime, error) {
	store, redisCache, err := newTokenStore(c)
	if err != nil {
		return nil, err
	}

	sess := session.New(store)
	if err := sess.Restore(ctx); err != nil {
		if redisCache != nil {
			_ = redisCache.Close()
		}
		return nil, err
	}

	client := backend.NewHTTPClient(c.Backend.BaseURL, sess, c.Backend.Timeout)
	a := app.New(app.Options{
		Backend: client,
		Session: sess,
		Poll: poller.Config{
			InitialDelay: c.Poll.InitialDelay,
			Interval:     c.Poll.Interval,
		},
		PlanCode:     c.App.PlanCode,
		HistoryLimit: c.App.HistoryLimit,
		Locale:       c.App.Locale,
		Logger:       slog.Default(),
		Observer:     observer,
	})

	return &runtime{cfg: c, session: sess, app: a, redis: redisCache}, nil
}

// newTokenStore builds the configured store. The Redis cache is returned so
// the caller can close and ping it.
func newTokenStore(c *config.Config) (session.TokenStore, *cache.RedisCache, error) {
	switch c.Session.Store {
	case config.TokenStoreMemory:
		return session.NewMemoryStore(), nil, nil
	case config.TokenStoreFile:
		return session.NewFileStore(c.Session.TokenFile), nil, nil
	case config.TokenStoreRedis:
		rc, err := cache.NewRedisCache(c.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis cache: %w", err)
		}
		return session.NewCacheStore(rc, c.Session.Profile, c.Session.TokenTTL), rc, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", c.Session.Store)
	}
}

// pinger returns the health check target for the token store, or nil for
// local stores.
func (r *runtime) pinger() handler.Pinger {
	if r.redis == nil {
		return nil
	}
	return r.redis
}

func (r *runtime) requireSession() error {
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run 'clarus login' first", session.ErrNotAuthenticated)
	}
	return nil
}

func (r *runtime) Close() {
	r.app.Close()
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

// bannerError prefers the message the controller shows the user over the
// raw error.
func (r *runtime) bannerError(err error) error {
	if msg := r.app.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}
