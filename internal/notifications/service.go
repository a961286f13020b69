package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldsync/internal/config"
)

const userAgent = "FieldSync/0.1.0"

// Service defines the notification surface exposed to the sync scheduler.
type Service interface {
	NotifySyncStarted(ctx context.Context, count int) error
	NotifySyncCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyItemFailed(ctx context.Context, captureType, itemID string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		syncCompleted: cfg.Notifications.SyncCompleted,
		itemFailed:    cfg.Notifications.ItemFailed,
	}
}

// NewNoop returns a service that discards every notification.
func NewNoop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	syncCompleted bool
	itemFailed    bool
}

func (n *ntfyService) NotifySyncStarted(ctx context.Context, count int) error {
	if !n.syncCompleted {
		return nil
	}
	data := payload{
		title:   "FieldSync - Sync Started",
		message: fmt.Sprintf("Flushing %d queued captures", count),
		tags:    []string{"fieldsync", "sync", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	if !n.syncCompleted {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "FieldSync - Sync Complete"
		message = fmt.Sprintf("Sync complete: %d captures uploaded in %s", completed, durationText)
	} else {
		title = "FieldSync - Sync Complete (with errors)"
		message = fmt.Sprintf("Sync complete: %d uploaded, %d failed in %s", completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"fieldsync", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, captureType, itemID string, cause error) error {
	if !n.itemFailed {
		return nil
	}
	captureType = strings.TrimSpace(captureType)
	if captureType == "" {
		captureType = "unknown"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Capture stuck: %s (%s)", captureType, itemID)
	builder.WriteString("\n")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	builder.WriteString("\nManual removal required")

	data := payload{
		title:    "FieldSync - Capture Failed",
		message:  builder.String(),
		tags:     []string{"fieldsync", "item", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "FieldSync - Test",
		message:  "Notification system test",
		tags:     []string{"fieldsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncStarted(context.Context, int) error                        { return nil }
func (noopService) NotifySyncCompleted(context.Context, int, int, time.Duration) error  { return nil }
func (noopService) NotifyItemFailed(context.Context, string, string, error) error       { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
