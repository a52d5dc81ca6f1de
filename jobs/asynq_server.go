package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/tonica-music/catalog/internal/jobs"
	"github.com/tonica-music/catalog/internal/platform/cache"
	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if len(cfg.Handlers) == 0 {
		return nil, errors.New("worker: no task handlers")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueImport:  3,
			QueueDefault: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn("task failed", slog.String("type", task.Type()), slog.Int("retry", retry), slog.Int("max_retry", maxRetry), slog.Any("error", err))
		}),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, logger: logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RedisOpt converts a REDIS_ADDR value into Asynq connection options.
func RedisOpt(addr string) (asynq.RedisClientOpt, error) {
	opts, err := cache.Options(addr)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueImport queues an invoice import and returns the task id.
func (c *Client) EnqueueImport(ctx context.Context, document, actorID string) (string, error) {
	task, err := NewImportNFETask(ImportNFEPayload{Document: document, ActorID: actorID})
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Inspector is the slice of asynq.Inspector the HTTP handler reads.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector Inspector
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector Inspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// WithMetrics publishes the queue depth seen by the health endpoint.
func (h *Handler) WithMetrics(m *jobmetrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/imports/{id}", h.importStatus)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueImport})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueImport)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueImport})
		return
	}
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "")
		return
	}
	h.metrics.ObserveQueue(jobmetrics.QueueDepth{
		Queue:    info.Queue,
		Pending:  info.Pending,
		Active:   info.Active,
		Retry:    info.Retry,
		Archived: info.Archived,
	})
	httpx.JSON(w, http.StatusOK, queueHealth{Queue: info.Queue, Pending: info.Pending, Active: info.Active, Retry: info.Retry})
}

type importStatus struct {
	TaskID   string          `json:"taskId"`
	State    string          `json:"state"`
	Retried  int             `json:"retried"`
	LastErr  string          `json:"lastError,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Finished string          `json:"completedAt,omitempty"`
}

func (h *Handler) importStatus(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "job queue not configured")
		return
	}
	id := chi.URLParam(r, "id")
	info, err := h.inspector.GetTaskInfo(QueueImport, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err != nil {
		h.logger.Warn("import task lookup", slog.Any("error", err), slog.String("task_id", id))
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "")
		return
	}
	out := importStatus{TaskID: info.ID, State: info.State.String(), Retried: info.Retried, LastErr: info.LastErr}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		out.Result = json.RawMessage(info.Result)
	}
	if !info.CompletedAt.IsZero() {
		out.Finished = info.CompletedAt.UTC().Format(time.RFC3339)
	}
	httpx.JSON(w, http.StatusOK, out)
}
