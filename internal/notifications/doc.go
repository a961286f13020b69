// Package notifications delivers sync events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-event toggles let operators keep only the alerts they care
// about, such as captures that exhausted their retries.
//
// Extend this package if you need alternative transports; the scheduler
// depends only on the simple Service interface.
package notifications
