// Package daemon coordinates the long-running FieldSync process and system
// integration points.
//
// It wires configuration, queue storage, the network monitor, and the sync
// scheduler into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers and serves
// the status projection that the CLI and IPC surface render.
//
// Keep orchestration logic here: sync mechanics live in syncer and storage
// details in queue while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
