package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/quillpress/quillpress/internal/live"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotify holds live pushes. It is drained by a single worker so
	// pushes reach a recipient's channel in the order they were accepted.
	QueueNotify = "notify"
	// TaskTypeNotifyPush is the task type for live notification pushes.
	TaskTypeNotifyPush = "notify:push"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// PushPayload carries one committed notification to the live delivery path.
type PushPayload struct {
	NotificationID  string `json:"notification_id"`
	RecipientUserID string `json:"recipient_user_id"`
	Message         string `json:"message"`
	CreatedAt       string `json:"created_at"`
}

// NewNotifyPushTask constructs an Asynq task.
func NewNotifyPushTask(payload PushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyPush, data), nil
}

// PushHandler processes TaskTypeNotifyPush tasks by publishing the payload
// on the recipient's Redis channel. API instances bridge those channels to
// their local live sessions; a recipient with no open session anywhere means
// zero subscribers, which is fine, the durable row already exists.
type PushHandler struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewPushHandler constructs a PushHandler.
func NewPushHandler(client *redis.Client, logger *slog.Logger) *PushHandler {
	return &PushHandler{redis: client, logger: logger}
}

// Handle publishes the task payload to the recipient's channel.
func (h *PushHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RecipientUserID == "" {
		return asynq.SkipRetry
	}

	channel := live.ChannelForUser(payload.RecipientUserID)
	if err := h.redis.Publish(ctx, channel, t.Payload()).Err(); err != nil {
		return fmt.Errorf("jobs: publish push: %w", err)
	}
	h.logger.Debug("push published",
		slog.String("notification_id", payload.NotificationID),
		slog.String("channel", channel))
	return nil
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}
