package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PoolFactory creates and verifies a connection pool.
type PoolFactory func(ctx context.Context) (*pgxpool.Pool, error)

// LazyPool creates the connection pool on first use. A failed attempt is
// not remembered, the next caller tries again.
//
// Get holds the lock for the whole first attempt: dialing, the ping and the
// OnReady hooks, which include the migrations. Concurrent callers wait for
// that attempt instead of starting their own, so a slow database or a long
// migration stalls every store request until it finishes or ctx expires for
// the caller that started it.
type LazyPool struct {
	mu      sync.Mutex
	pool    *pgxpool.Pool
	factory PoolFactory
	onReady []func(*pgxpool.Pool)
}

func NewLazyPool(factory PoolFactory) *LazyPool {
	return &LazyPool{
		factory: factory,
	}
}

// NewPingingFactory builds a PoolFactory that only hands out pools which
// answered a ping.
func NewPingingFactory(params NewDBPoolParams) PoolFactory {
	return func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := NewDBPool(ctx, params)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping db: %w", err)
		}
		return pool, nil
	}
}

// OnReady registers fn to be called once, right after the pool is created.
// Must be called before the first Get.
func (lp *LazyPool) OnReady(fn func(*pgxpool.Pool)) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.onReady = append(lp.onReady, fn)
}

func (lp *LazyPool) Get(ctx context.Context) (*pgxpool.Pool, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.pool != nil {
		return lp.pool, nil
	}

	pool, err := lp.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("init db pool: %w", err)
	}
	log.Debugln("db pool initialized")

	lp.pool = pool
	for _, fn := range lp.onReady {
		fn(pool)
	}

	return lp.pool, nil
}

// Close closes the pool if it was ever created. Blocks until all
// acquired connections are released.
func (lp *LazyPool) Close() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.pool == nil {
		return
	}
	lp.pool.Close()
	lp.pool = nil
}
