package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hermes/internal/audio"
	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/logging"
	"hermes/internal/registry"
	"hermes/internal/session"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	registryOnce sync.Once
	registry     *registry.Store
	registryErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// ensureLogger builds the process logger from config on first use and prunes
// logs past the retention window.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging unavailable: %v\n", err)
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "hermes*.log",
		})
	})
	return c.logger
}

func (c *commandContext) ensureRegistry() (*registry.Store, error) {
	c.registryOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.registryErr = err
			return
		}
		c.registry, c.registryErr = registry.Open(cfg)
	})
	return c.registry, c.registryErr
}

func (c *commandContext) close() {
	if c.registry != nil {
		_ = c.registry.Close()
		c.registry = nil
	}
}

// newConverter builds a converter wired to the recent-projects registry. A
// registry that cannot be opened only disables the recent list.
func (c *commandContext) newConverter(locator audio.Locator) (*converter.Converter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()
	store, err := c.ensureRegistry()
	if err != nil {
		logging.WarnWithContext(logger, "recent projects unavailable", "registry_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "saves will not appear in `hermes projects`"),
		)
		store = nil
	}
	return converter.New(converter.Options{
		Config:   cfg,
		Logger:   logger,
		Locator:  locator,
		Registry: store,
	})
}

// withConverter runs fn with a fresh converter and releases it afterwards.
func (c *commandContext) withConverter(locator audio.Locator, fn func(*converter.Converter) error) error {
	conv, err := c.newConverter(locator)
	if err != nil {
		return err
	}
	defer conv.Close()
	return fn(conv)
}

// withProject opens the project named by ref (a name or a save file), runs fn,
// and saves the project back when fn reports a change.
func (c *commandContext) withProject(ctx context.Context, ref string, fn func(*converter.Converter) (bool, error)) error {
	return c.withConverter(nil, func(conv *converter.Converter) error {
		if err := openProjectRef(ctx, conv, ref); err != nil {
			return err
		}
		changed, err := fn(conv)
		if err != nil || !changed {
			return err
		}
		_, err = conv.Save(ctx)
		return err
	})
}

// openProjectRef loads ref as a save file path when it looks like one, and as
// a project name otherwise.
func openProjectRef(ctx context.Context, conv *converter.Converter, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("project name or save file is required")
	}
	if strings.HasSuffix(ref, session.SaveExtension) || isFile(ref) {
		path, err := config.ExpandPath(ref)
		if err != nil {
			return err
		}
		return conv.Load(ctx, path)
	}
	return conv.OpenProject(ctx, ref)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
