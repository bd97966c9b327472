package asynq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workpulse/pkg/config"
	"workpulse/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeRecompute = "productivity:recompute"

	defaultQueue = "default"
)

// Manager recompute queue manager
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	inspector *asynq.Inspector
	mux       *asynq.ServeMux
	cfg       config.QueueConfig
}

// NewManager creates queue manager
func NewManager(redisCfg config.RedisConfig, queueCfg config.QueueConfig) (*Manager, error) {
	if redisCfg.Addr == "" {
		return nil, errors.New("redis address is required for the recompute queue")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: queueCfg.Concurrency,
			Queues: map[string]int{
				defaultQueue: 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorCtx(ctx, "queue task failed, type: %s, payload: %s, error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	return &Manager{
		client:    asynq.NewClient(redisOpt),
		server:    server,
		inspector: asynq.NewInspector(redisOpt),
		mux:       asynq.NewServeMux(),
		cfg:       queueCfg,
	}, nil
}

// EnqueueRecompute enqueues a recompute of one (project, date). A pending task for
// the same pair is reused, so repeated requests collapse into one computation.
func (m *Manager) EnqueueRecompute(ctx context.Context, projectID, date string) (string, error) {
	task, err := NewRecomputeTask(projectID, date)
	if err != nil {
		return "", err
	}

	taskID := RecomputeTaskID(projectID, date)
	opts := []asynq.Option{
		asynq.TaskID(taskID),
		asynq.Queue(defaultQueue),
		asynq.Timeout(time.Duration(m.cfg.TaskTimeout) * time.Second),
		asynq.MaxRetry(m.cfg.MaxRetry),
	}

	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.InfoCtx(ctx, "recompute already queued, task_id: %s", taskID)
		return taskID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.InfoCtx(ctx, "task enqueued, task_id: %s, queue: %s", info.ID, info.Queue)
	return info.ID, nil
}

// ErrTaskNotFound no recompute task with the given id
var ErrTaskNotFound = errors.New("recompute task not found")

// GetRecomputeTask retrieves the state of a queued recompute
func (m *Manager) GetRecomputeTask(taskID string) (*RecomputeTaskInfo, error) {
	info, err := m.inspector.GetTaskInfo(defaultQueue, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return NewRecomputeTaskInfo(info)
}

// RegisterHandler registers task handler
func (m *Manager) RegisterHandler(pattern string, handler asynq.Handler) {
	m.mux.Handle(pattern, handler)
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	if err := m.inspector.Close(); err != nil {
		logger.WarnCtx(context.Background(), "failed to close queue inspector: %v", err)
	}
	return m.client.Close()
}
