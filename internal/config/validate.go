package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	if !slices.Contains(ExportModes, c.Export.Mode) {
		return fmt.Errorf("export.mode must be one of %v, got %q", ExportModes, c.Export.Mode)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if !slices.Contains(AudioQualities, c.Audio.Quality) {
		return fmt.Errorf("audio.quality must be one of %v, got %q", AudioQualities, c.Audio.Quality)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.ToleranceMS <= 0 {
		return errors.New("alignment.tolerance_ms must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if err := ensurePositiveMap(map[string]int{
		"session.autosave_interval_seconds": c.Session.AutosaveIntervalSeconds,
		"session.scratch_max_age_hours":     c.Session.ScratchMaxAgeHours,
	}); err != nil {
		return err
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
