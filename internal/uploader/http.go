package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

const userAgent = "FieldSync/0.1.0"

// endpointByType maps each capture type to its collection path on the hosted API.
var endpointByType = map[queue.CaptureType]string{
	queue.CapturePhoto:         "/field/photos",
	queue.CaptureTranscript:    "/field/transcripts",
	queue.CaptureConfiguration: "/field/configurations",
}

// RemoteClient posts queued payloads to the hosted API. One registered Func
// per capture type wraps a single POST; retries are solely the scheduler's
// re-invocations, never internal.
type RemoteClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemoteClient builds an API client from the [remote] config section.
func NewRemoteClient(cfg *config.Config) *RemoteClient {
	timeout := time.Duration(cfg.Remote.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteClient{
		baseURL: cfg.Remote.BaseURL,
		token:   cfg.Remote.APIToken,
		client:  &http.Client{Timeout: timeout},
	}
}

// RegisterAll wires one uploader per capture type into the registry.
func (c *RemoteClient) RegisterAll(reg *Registry) error {
	for _, captureType := range queue.AllCaptureTypes() {
		path, ok := endpointByType[captureType]
		if !ok {
			return fmt.Errorf("no endpoint mapped for capture type %q", captureType)
		}
		ct, endpoint := captureType, c.baseURL+path
		if err := reg.Register(ct, func(ctx context.Context, item *queue.Item) error {
			return c.post(ctx, endpoint, item)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *RemoteClient) post(ctx context.Context, endpoint string, item *queue.Item) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(item.Payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Idempotency-Key", item.ID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit %s: %w", item.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("submit %s: remote returned %d: %s", item.Type, resp.StatusCode, detail)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
