package config

const (
	defaultDataDir              = "~/.local/share/fieldsync"
	defaultLogDir               = "~/.local/share/fieldsync/logs"
	defaultRemoteRequestTimeout = 60
	defaultRemoteHealthPath     = "/health"
	defaultSyncInterval         = 300
	defaultSyncRetryDelay       = 5
	defaultProbeInterval        = 30
	defaultProbeTimeout         = 10
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			RequestTimeout: defaultRemoteRequestTimeout,
			HealthPath:     defaultRemoteHealthPath,
		},
		Sync: Sync{
			Interval:   defaultSyncInterval,
			RetryDelay: defaultSyncRetryDelay,
		},
		Network: Network{
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			SyncCompleted:  true,
			ItemFailed:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
