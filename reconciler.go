package connect

import (
	"context"
	"sync"
)

// ConnectionReconciler persists freshly fetched provider data into an
// existing connection record. Implementations must never block the login path
// beyond a single synchronous persistence call and must never surface
// failures to the caller.
type ConnectionReconciler interface {
	UpdateAsync(profile *Profile, conn *Connection)
}

type reconcileTask struct {
	profile *Profile
	conn    *Connection
}

// Reconciler runs connection updates on a bounded worker pool. When the pool
// cannot accept a task (queue full or pool stopped) the update runs
// synchronously on the calling goroutine instead. Both failure domains are
// logged and swallowed: a missed reconciliation is corrected on the next
// login.
type Reconciler struct {
	service ConnectionService
	logger  Logger
	tasks   chan reconcileTask
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*reconcilerConfig)

type reconcilerConfig struct {
	workers   int
	queueSize int
	logger    Logger
}

// WithWorkers sets the number of pool workers (default 2).
func WithWorkers(n int) ReconcilerOption {
	return func(c *reconcilerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets the task queue capacity (default 64). A full queue is
// exactly the trigger for the synchronous fallback.
func WithQueueSize(n int) ReconcilerOption {
	return func(c *reconcilerConfig) {
		if n >= 0 {
			c.queueSize = n
		}
	}
}

// WithReconcilerLogger sets the logger.
func WithReconcilerLogger(l Logger) ReconcilerOption {
	return func(c *reconcilerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewReconciler creates a running reconciler backed by service.
func NewReconciler(service ConnectionService, opts ...ReconcilerOption) *Reconciler {
	cfg := &reconcilerConfig{
		workers:   2,
		queueSize: 64,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	r := &Reconciler{
		service: service,
		logger:  cfg.logger,
		tasks:   make(chan reconcileTask, cfg.queueSize),
	}

	for i := 0; i < cfg.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

// UpdateAsync submits a connection update to the pool. The call returns
// immediately on successful submission; on rejection the update runs inline
// before returning. No error ever escapes.
func (r *Reconciler) UpdateAsync(profile *Profile, conn *Connection) {
	if profile == nil || conn == nil {
		return
	}

	if r.submit(reconcileTask{profile: profile, conn: conn}) {
		return
	}

	r.logger.Warn("connection update pool rejected task, running synchronously",
		"provider", profile.Provider,
		"provider_user_id", profile.ProviderUserID,
	)
	r.runUpdate(profile, conn)
}

func (r *Reconciler) submit(task reconcileTask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	select {
	case r.tasks <- task:
		return true
	default:
		return false
	}
}

func (r *Reconciler) worker() {
	defer r.wg.Done()
	for task := range r.tasks {
		r.runUpdate(task.profile, task.conn)
	}
}

// runUpdate performs one persistence call. The login request context may be
// gone by the time the task runs, so updates use a background context.
func (r *Reconciler) runUpdate(profile *Profile, conn *Connection) {
	if err := r.service.UpdateConnection(context.Background(), profile, conn); err != nil {
		r.logger.Error("connection update failed",
			"provider", profile.Provider,
			"provider_user_id", profile.ProviderUserID,
			"local_user_id", conn.LocalUserID,
			"rank", conn.Rank,
			"error", err,
		)
	}
}

// Close stops the pool and waits for queued tasks to drain. Updates submitted
// after Close run synchronously on the caller.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.tasks)
	r.mu.Unlock()

	r.wg.Wait()
}
