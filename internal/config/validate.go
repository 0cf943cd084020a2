package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJikan(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateJikan() error {
	if c.Jikan.BaseURL == "" {
		return errors.New("jikan.base_url must be set")
	}
	if c.Jikan.DelaySeconds < 0 {
		return errors.New("jikan.delay_seconds must not be negative")
	}
	if c.Jikan.SearchAttempts < 1 {
		return errors.New("jikan.search_attempts must be at least 1")
	}
	if c.Jikan.SearchLimit < c.Jikan.SearchAttempts {
		return errors.New("jikan.search_limit must not be smaller than jikan.search_attempts")
	}
	if c.Jikan.RequestTimeoutSeconds < 1 {
		return errors.New("jikan.request_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.MaxChoices < 1 {
		return errors.New("matching.max_choices must be at least 1")
	}
	if c.Matching.MaxPasses < 1 {
		return errors.New("matching.max_passes must be at least 1")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if c.Paths.MappingFile == "" {
		return errors.New("paths.mapping_file must be set")
	}
	if c.Paths.BlacklistFile == "" {
		return errors.New("paths.blacklist_file must be set")
	}
	return nil
}
