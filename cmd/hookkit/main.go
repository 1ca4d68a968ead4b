// Package main is the hookkit plugin host runner: it loads the kernel
// configuration, starts the telemetry emitter, loads Lua plugins, and keeps
// the kernel running until interrupted. Hot config reload adjusts the log
// level and default timeout without a restart.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coralcms/hookkit/internal/kernel"
	"github.com/coralcms/hookkit/internal/kernel/config"
	"github.com/coralcms/hookkit/internal/logging"
	"github.com/coralcms/hookkit/internal/plugin"
	"github.com/coralcms/hookkit/internal/telemetry"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		pluginDir   string
		console     bool
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&pluginDir, "plugins", "", "Plugin directory (overrides config)")
	flag.BoolVar(&console, "console", false, "Human-readable log output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("hookkit %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	if pluginDir != "" {
		cfg.PluginDir = pluginDir
	}

	logger := logging.NewZerolog(logging.ZerologConfig{
		Level:   cfg.LogLevel,
		Console: console,
	})

	emitter := telemetry.NewChannelEmitter(
		telemetry.SinkFunc(func(ev telemetry.Event) error {
			// Stand-in sink until the host's broadcast subsystem is
			// wired in.
			logger.Debug("telemetry",
				"type", string(ev.Type),
				"kind", string(ev.Kind),
				"name", ev.Name,
				"owner", ev.Owner,
			)
			return nil
		}),
		telemetry.WithQueueSize(cfg.TelemetryQueueSize),
	)
	if err := emitter.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: starting telemetry: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = emitter.Stop(ctx)
	}()

	k := kernel.New(
		kernel.WithConfig(cfg),
		kernel.WithLogger(logger),
		kernel.WithEmitter(emitter),
	)
	defer k.Shutdown()

	manager := plugin.NewManager(k, logger)
	defer manager.UnloadAll()

	loaded, err := manager.LoadAll(cfg.PluginDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading plugins: %v\n", err)
		return 1
	}
	logger.Info("hookkit started",
		"version", version,
		"plugins", loaded,
		"plugin_dir", cfg.PluginDir,
	)

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath,
			func(next *config.Config) {
				k.SetConfig(next)
				logger.SetLevel(next.LogLevel)
				logger.Info("config reloaded",
					"default_timeout", next.DefaultTimeout,
					"log_level", next.LogLevel,
				)
			},
			func(err error) {
				logger.Warn("config reload failed", "error", err.Error())
			},
		)
		if err != nil {
			logger.Warn("config watch unavailable", "error", err.Error())
		} else {
			defer watcher.Close()
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	logger.Info("hookkit stopping")
	return 0
}
