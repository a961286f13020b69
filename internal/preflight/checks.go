package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"fieldsync/internal/config"
)

const (
	remoteCheckName = "Remote API"

	// minFreeBytes is the floor below which enqueueing new captures is likely
	// to start failing writes. 32 MiB covers the database plus WAL headroom.
	minFreeBytes = 32 << 20
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has at least min bytes
// free for the caller's writes.
func CheckDiskSpace(name, path string, min uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < min {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %d MiB free, need %d MiB)", path, free>>20, min>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckRemote verifies the hosted API is reachable and the token is accepted.
func CheckRemote(ctx context.Context, cfg *config.Config) Result {
	base := strings.TrimRight(strings.TrimSpace(cfg.Remote.BaseURL), "/")
	if base == "" {
		return Result{Name: remoteCheckName, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+cfg.Remote.HealthPath, nil)
	if err != nil {
		return Result{Name: remoteCheckName, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if token := strings.TrimSpace(cfg.Remote.APIToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: remoteCheckName, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return Result{Name: remoteCheckName, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: remoteCheckName, Detail: "auth failed (invalid api token)"}
	default:
		return Result{Name: remoteCheckName, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
}
