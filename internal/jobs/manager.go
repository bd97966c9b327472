package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"workpulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled background task.
type Job interface {
	Name() string
	// Schedule is a cron expression or descriptor such as "@every 6h".
	Schedule() string
	Run(ctx context.Context) error
}

// StartupJob is a job that also runs once when the manager starts.
type StartupJob interface {
	Job
	RunOnStart() bool
}

type entry struct {
	job     Job
	wrapped cron.Job
}

// Manager orchestrates the lifecycle of background jobs.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cron    *cron.Cron
	log     cron.Logger
	entries []entry
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a job manager bound to the provided context. Schedules are
// evaluated in loc.
func NewManager(parent context.Context, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(parent)
	l := cronLogger{}
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		log:    l,
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(l)),
	}
}

// Register adds a job to the manager.
func (m *Manager) Register(job Job) error {
	if job == nil {
		return nil
	}
	schedule, err := cron.ParseStandard(job.Schedule())
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule(), job.Name(), err)
	}

	// overlapping runs of the same job are dropped, startup run included
	wrapped := cron.NewChain(cron.Recover(m.log), cron.SkipIfStillRunning(m.log)).
		Then(cron.FuncJob(func() { m.executeJob(job) }))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cron.Schedule(schedule, wrapped)
	m.entries = append(m.entries, entry{job: job, wrapped: wrapped})
	logger.InfoCtx(m.ctx, "registered job %s with schedule %s", job.Name(), job.Schedule())
	return nil
}

// Start launches the scheduler and the startup runs.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	entries := append([]entry(nil), m.entries...)
	m.mu.Unlock()

	m.cron.Start()

	for _, e := range entries {
		sj, ok := e.job.(StartupJob)
		if !ok || !sj.RunOnStart() {
			continue
		}
		m.wg.Add(1)
		go func(e entry) {
			defer m.wg.Done()
			e.wrapped.Run()
		}(e)
	}
}

// Stop signals all jobs to stop and stops scheduling new runs.
func (m *Manager) Stop() {
	m.cancel()
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return
	}
	stopped := m.cron.Stop()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-stopped.Done()
	}()
}

// Wait blocks until all running jobs exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) executeJob(job Job) {
	if m.ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job.Run(m.ctx); err != nil {
		logger.WarnCtx(m.ctx, "background job %s failed: %v", job.Name(), err)
		return
	}
	logger.DebugCtx(m.ctx, "background job %s finished in %v", job.Name(), time.Since(start))
}

// cronLogger routes scheduler logs through the global logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s%s", msg, formatKV(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s: %v%s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
