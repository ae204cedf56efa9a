// Package cmd provides common initialization for the command-line binaries:
// persistence, event bus, cache, trace recorder, and component registry
// construction from configuration values.
package cmd

import (
	"log/slog"

	"github.com/ideonhq/ideon/pkg/registry"
)

// NewRegistry builds the component registry with the built-in step executors
// and triggers, plus any .so plugins found under pluginsPath.
func NewRegistry(logger *slog.Logger, pluginsPath string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterDefaultStepExecutors()
	reg.RegisterDefaultTriggers()

	if pluginsPath != "" {
		registerStepExecutorPlugins(reg, pluginsPath)
		registerTriggerPlugins(reg, pluginsPath)
	}

	return reg
}

func registerStepExecutorPlugins(reg *registry.Registry, pluginsPath string) {
	plugins, err := reg.LoadStepExecutorPlugins(pluginsPath)
	if err != nil {
		panic(err)
	}

	for _, plugin := range plugins {
		reg.RegisterStepExecutor(plugin)
	}
}

func registerTriggerPlugins(reg *registry.Registry, pluginsPath string) {
	plugins, err := reg.LoadTriggerPlugins(pluginsPath)
	if err != nil {
		panic(err)
	}

	for _, plugin := range plugins {
		reg.RegisterTrigger(plugin)
	}
}
