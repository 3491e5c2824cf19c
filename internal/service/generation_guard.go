package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type generationLock interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// errGenerationLockLost is the cancellation cause of a run whose distributed lock expired or was taken over.
var errGenerationLockLost = errors.New("generation lock lost")

// GenerationGuard serialises generation runs per semester. The in-process set covers one replica;
// the optional distributed lock covers the rest.
type GenerationGuard struct {
	mu      sync.Mutex
	active  map[string]struct{}
	lock    generationLock
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewGenerationGuard builds a guard; lock may be nil.
func NewGenerationGuard(lock generationLock, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *GenerationGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationGuard{active: make(map[string]struct{}), lock: lock, ttl: ttl, metrics: metrics, logger: logger}
}

// Acquire claims the semester or fails with ErrGenerationInProgress. The returned context is
// cancelled if the distributed lock is lost mid-run; the returned func releases the claim.
func (g *GenerationGuard) Acquire(ctx context.Context, semesterID string) (context.Context, func(), error) {
	g.mu.Lock()
	if _, busy := g.active[semesterID]; busy {
		g.mu.Unlock()
		return nil, nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "")
	}
	g.active[semesterID] = struct{}{}
	g.mu.Unlock()

	token := uuid.NewString()
	if g.lock != nil {
		ok, err := g.lock.Acquire(ctx, semesterID, token, g.ttl)
		if err != nil || !ok {
			g.forget(semesterID)
			if err != nil {
				return nil, nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to acquire generation lock")
			}
			return nil, nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "")
		}
	}
	g.metrics.GenerationStarted()

	runCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	if g.lock != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.keepAlive(runCtx, cancel, semesterID, token, stop)
		}()
	}

	var once sync.Once
	return runCtx, func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cancel(nil)
			if g.lock != nil {
				releaseCtx, cancelRelease := context.WithTimeout(context.Background(), 5*time.Second)
				if err := g.lock.Release(releaseCtx, semesterID, token); err != nil {
					g.logger.Warn("failed to release generation lock", zap.String("semester_id", semesterID), zap.Error(err))
				}
				cancelRelease()
			}
			g.forget(semesterID)
			g.metrics.GenerationFinished()
		})
	}, nil
}

// keepAlive extends the distributed lock every third of its TTL. The run is cancelled once the lock
// is reported gone or could not be extended for a whole TTL.
func (g *GenerationGuard) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, semesterID, token string, stop <-chan struct{}) {
	interval := g.ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	extended := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		extendCtx, cancelExtend := context.WithTimeout(context.Background(), interval)
		ok, err := g.lock.Extend(extendCtx, semesterID, token, g.ttl)
		cancelExtend()
		switch {
		case err == nil && ok:
			extended = time.Now()
			continue
		case err == nil:
			g.logger.Error("generation lock taken over", zap.String("semester_id", semesterID))
			cancel(errGenerationLockLost)
			return
		}
		g.logger.Warn("failed to extend generation lock", zap.String("semester_id", semesterID), zap.Error(err))
		if time.Since(extended) >= g.ttl {
			cancel(errGenerationLockLost)
			return
		}
	}
}

// Busy reports whether this replica is generating the semester.
func (g *GenerationGuard) Busy(semesterID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[semesterID]
	return busy
}

func (g *GenerationGuard) forget(semesterID string) {
	g.mu.Lock()
	delete(g.active, semesterID)
	g.mu.Unlock()
}
