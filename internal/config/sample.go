package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleConfig = `# FieldSync configuration
#
# The daemon queues field captures locally and uploads them to the hosted
# API whenever connectivity allows. Only remote.base_url is required.

[paths]
# data_dir holds the queue database, daemon socket, and lock file.
data_dir = "~/.local/share/fieldsync"
log_dir = "~/.local/share/fieldsync/logs"

[remote]
# Base URL of the hosted API, e.g. "https://api.example.com".
base_url = ""
# API token for the Authorization header. Leave empty to use the
# FIELDSYNC_API_TOKEN environment variable instead.
api_token = ""
# Per-request timeout in seconds for uploads.
request_timeout = 60
# Path probed for reachability, relative to base_url.
health_path = "/health"

[sync]
# Periodic flush interval in seconds while online. 0 disables the timer;
# reconnects and manual triggers still flush.
interval = 300
# Upload attempts per item before it is surfaced as permanently failed.
# 0 retries forever.
max_attempts = 0
# Pause in seconds before re-attempting a previously failed item.
retry_delay = 5

[network]
# Override the reachability probe target. Empty probes the remote API
# health endpoint.
probe_url = ""
probe_interval = 30
probe_timeout = 10

[notifications]
# ntfy topic URL, e.g. "https://ntfy.sh/your-topic". Empty disables
# notifications entirely.
ntfy_topic = ""
request_timeout = 10
sync_completed = true
item_failed = true

[logging]
# "console" or "json"
format = "console"
# "debug", "info", "warn", or "error"
level = "info"
`

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
