package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/quillpress/quillpress/internal/live"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPushHandlerPublishesToRecipientChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := client.Subscribe(ctx, live.ChannelForUser("alice"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload := PushPayload{
		NotificationID:  "n1",
		RecipientUserID: "alice",
		Message:         "Someone liked your post: Hello",
	}
	task, err := NewNotifyPushTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	handler := NewPushHandler(client, discardLogger())
	if err := handler.Handle(ctx, task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got PushPayload
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.NotificationID != "n1" || got.Message != payload.Message {
			t.Fatalf("payload = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("nothing published to recipient channel")
	}
}

func TestPushHandlerSkipsMalformedPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	handler := NewPushHandler(client, discardLogger())

	task := asynq.NewTask(TaskTypeNotifyPush, []byte("not json"))
	if err := handler.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}

	task = asynq.NewTask(TaskTypeNotifyPush, []byte(`{"message":"no recipient"}`))
	if err := handler.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry for empty recipient, got %v", err)
	}
}
