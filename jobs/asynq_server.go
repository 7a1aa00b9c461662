package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/quillpress/quillpress/internal/notifications"
)

// Worker wraps the Asynq servers and optional scheduler. Live pushes run
// on their own single-worker server so per-recipient ordering survives the
// queue; everything else shares the concurrent default server.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	pushServer *asynq.Server
	pushMux    *asynq.ServeMux
	scheduler  *asynq.Scheduler
	logger     *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Handlers  []TaskHandler
	Cron      []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, HandleSendEmailTask)

	var pushSrv *asynq.Server
	var pushMux *asynq.ServeMux
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		if h.Type == TaskTypeNotifyPush {
			if pushMux == nil {
				// Concurrency 1: two pushes for the same recipient must not
				// race each other onto the redis channel.
				pushSrv = asynq.NewServer(cfg.RedisOpts, asynq.Config{
					Concurrency: 1,
					Queues: map[string]int{
						QueueNotify: 1,
					},
				})
				pushMux = asynq.NewServeMux()
			}
			pushMux.HandleFunc(h.Type, h.Handler)
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{
		server:     srv,
		mux:        mux,
		pushServer: pushSrv,
		pushMux:    pushMux,
		scheduler:  scheduler,
		logger:     cfg.Logger,
	}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 2)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	if w.pushServer != nil {
		go func() {
			errCh <- w.pushServer.Run(w.pushMux)
		}()
	}
	shutdown := func() {
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		if w.pushServer != nil {
			w.pushServer.Shutdown()
		}
		w.server.Shutdown()
	}
	select {
	case <-ctx.Done():
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		return err
	}
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

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueWelcome enqueues the welcome mail for a fresh registration.
func (c *Client) EnqueueWelcome(ctx context.Context, email, name string) error {
	_, err := c.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: "Welcome to QuillPress",
		Body:    "Hi " + name + ", your account is ready.",
	})
	return err
}

// EnqueuePush enqueues a live push for a committed notification. It
// satisfies the fan-out service's dispatcher contract. Pushes are never
// retried: a retried push would overtake later pushes for the same
// recipient, and the durable row covers a lost one.
func (c *Client) EnqueuePush(ctx context.Context, n notifications.Notification) error {
	task, err := NewNotifyPushTask(PushPayload{
		NotificationID:  n.ID,
		RecipientUserID: n.RecipientUserID,
		Message:         n.Message,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueNotify), asynq.MaxRetry(0))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queue":"default","pending":0}`))
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	pending := 0
	queueName := QueueDefault
	if info != nil {
		pending = int(info.Pending)
		queueName = info.Queue
	}
	_, _ = w.Write([]byte(`{"queue":"` + queueName + `","pending":` + itoa(pending) + `}`))
}

func itoa(i int) string {
	return strconv.FormatInt(int64(i), 10)
}
