package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
)

func TestWorkerIsolatesPushHandling(t *testing.T) {
	var pushed int
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "localhost:0"},
		Logger:    discardLogger(),
		Handlers: []TaskHandler{
			{Type: TaskTypeNotifyPush, Handler: func(ctx context.Context, t *asynq.Task) error {
				pushed++
				return nil
			}},
		},
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}

	if worker.pushServer == nil || worker.pushMux == nil {
		t.Fatal("push handler must get its own serialized server")
	}

	task := asynq.NewTask(TaskTypeNotifyPush, []byte(`{}`))
	if err := worker.pushMux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("push mux: %v", err)
	}
	if pushed != 1 {
		t.Fatalf("push handler invoked %d times, want 1", pushed)
	}

	// The concurrent default mux must not also pick up pushes.
	if err := worker.mux.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("default mux should not handle push tasks")
	}
}

func TestWorkerWithoutPushHandlerSkipsPushServer(t *testing.T) {
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "localhost:0"},
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if worker.pushServer != nil {
		t.Fatal("no push handler registered, no push server expected")
	}
}
