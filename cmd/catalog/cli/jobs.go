package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/tonica-music/catalog/jobs"
)

// Enqueuer submits import tasks.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, document, actorID string) (string, error)
}

// QueueInspector reads queue state.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// JobsCLI wraps manual management helpers for the import queue.
type JobsCLI struct {
	client    Enqueuer
	inspector QueueInspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opt, err := jobs.RedisOpt(redisAddr)
	if err != nil {
		return nil, err
	}
	client, err := jobs.NewClient(opt)
	if err != nil {
		return nil, err
	}
	inspector := asynq.NewInspector(opt)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{client, inspector}}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnqueueFile queues the invoice stored at path for asynchronous import.
func (c *JobsCLI) EnqueueFile(ctx context.Context, path, actorID string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("jobs cli: client not configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("jobs cli: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("jobs cli: %s is empty", path)
	}
	return c.client.EnqueueImport(ctx, string(raw), actorID)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueues reports the metrics for the import and default queues.
func (c *JobsCLI) InspectQueues() ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	var out []QueueStats
	for _, queue := range []string{jobs.QueueImport, jobs.QueueDefault} {
		info, err := c.inspector.GetQueueInfo(queue)
		if err != nil {
			return nil, fmt.Errorf("jobs cli: queue %s: %w", queue, err)
		}
		stats := QueueStats{Queue: queue}
		if info != nil {
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
			stats.Archived = info.Archived
		}
		out = append(out, stats)
	}
	return out, nil
}

const usage = `usage:
  catalog jobs enqueue <file> [actor-id]
  catalog jobs stats`

// RunJobs executes a jobs subcommand and returns the process exit code.
func RunJobs(ctx context.Context, args []string, redisAddr string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	c, err := NewJobsCLI(redisAddr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer c.Close()
	return c.run(ctx, args, stdout, stderr)
}

func (c *JobsCLI) run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "enqueue":
		if len(args) < 2 {
			fmt.Fprintln(stderr, usage)
			return 2
		}
		actor := "cli"
		if len(args) > 2 {
			actor = args[2]
		}
		id, err := c.EnqueueFile(ctx, args[1], actor)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "queued %s\n", id)
	case "stats":
		stats, err := c.InspectQueues()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		for _, s := range stats {
			fmt.Fprintf(stdout, "%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
		}
	default:
		fmt.Fprintln(stderr, usage)
		return 2
	}
	return 0
}
