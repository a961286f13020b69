package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("remote.base_url is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Remote.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote.base_url %q is not a valid URL", c.Remote.BaseURL)
	}
	if c.Remote.RequestTimeout < 0 {
		return errors.New("remote.request_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < 0 {
		return errors.New("sync.interval must not be negative")
	}
	if c.Sync.MaxAttempts < 0 {
		return errors.New("sync.max_attempts must not be negative")
	}
	if c.Sync.RetryDelay < 0 {
		return errors.New("sync.retry_delay must not be negative")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.ProbeURL != "" {
		parsed, err := url.Parse(c.Network.ProbeURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("network.probe_url %q is not a valid URL", c.Network.ProbeURL)
		}
	}
	if c.Network.ProbeInterval <= 0 {
		return errors.New("network.probe_interval must be positive")
	}
	if c.Network.ProbeTimeout <= 0 {
		return errors.New("network.probe_timeout must be positive")
	}
	return nil
}
