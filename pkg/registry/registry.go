// Package registry tracks the available step executor and trigger types and
// creates configured instances on demand. Configuration is validated against
// the factory schema before the factory runs, so components never see a
// malformed config map.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ideonhq/ideon/pkg/protocol"
)

type Registry struct {
	logger            *slog.Logger
	executorFactories map[string]protocol.StepExecutorFactory
	triggerFactories  map[string]protocol.TriggerFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:            log,
		executorFactories: make(map[string]protocol.StepExecutorFactory),
		triggerFactories:  make(map[string]protocol.TriggerFactory),
	}
}

func (r *Registry) RegisterStepExecutor(factory protocol.StepExecutorFactory) {
	r.executorFactories[factory.ID()] = factory
}

func (r *Registry) RegisterTrigger(factory protocol.TriggerFactory) {
	r.triggerFactories[factory.ID()] = factory
}

// CreateStepExecutor validates the configuration against the factory schema
// and builds a new executor instance.
func (r *Registry) CreateStepExecutor(ctx context.Context, executorID string, config map[string]any) (protocol.StepExecutor, error) {
	factory, ok := r.executorFactories[executorID]
	if !ok {
		return nil, fmt.Errorf("step executor '%s' not registered", executorID)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("configuration for step executor '%s' is invalid: %w", executorID, err)
	}

	return factory.Create(ctx, config, r.logger)
}

// CreateTrigger validates the configuration against the factory schema and
// builds a new trigger instance.
func (r *Registry) CreateTrigger(ctx context.Context, triggerID string, config map[string]any) (protocol.Trigger, error) {
	factory, ok := r.triggerFactories[triggerID]
	if !ok {
		return nil, fmt.Errorf("trigger '%s' not registered", triggerID)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("configuration for trigger '%s' is invalid: %w", triggerID, err)
	}

	return factory.Create(ctx, config, r.logger)
}

// HealthCheck reports the registry's registration counts. The registry is
// immutable after startup, so it is always healthy; the message feeds the
// health endpoint's checkers map.
func (r *Registry) HealthCheck() (string, bool) {
	return fmt.Sprintf("%d step executors, %d triggers registered",
		len(r.executorFactories), len(r.triggerFactories)), true
}

// ComponentInfo describes one registered factory for discovery endpoints.
type ComponentInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// StepExecutorComponents returns metadata for every registered executor
// factory, sorted by id.
func (r *Registry) StepExecutorComponents() []ComponentInfo {
	components := make([]ComponentInfo, 0, len(r.executorFactories))
	for _, id := range r.AvailableStepExecutors() {
		factory := r.executorFactories[id]
		components = append(components, ComponentInfo{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return components
}

// TriggerComponents returns metadata for every registered trigger factory,
// sorted by id.
func (r *Registry) TriggerComponents() []ComponentInfo {
	components := make([]ComponentInfo, 0, len(r.triggerFactories))
	for _, id := range r.AvailableTriggers() {
		factory := r.triggerFactories[id]
		components = append(components, ComponentInfo{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return components
}

// AvailableStepExecutors returns the registered executor IDs in sorted order.
func (r *Registry) AvailableStepExecutors() []string {
	ids := make([]string, 0, len(r.executorFactories))
	for id := range r.executorFactories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// AvailableTriggers returns the registered trigger IDs in sorted order.
func (r *Registry) AvailableTriggers() []string {
	ids := make([]string, 0, len(r.triggerFactories))
	for id := range r.triggerFactories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// LoadStepExecutorPlugins loads executor factories from .so files under
// <pluginsPath>/executors. Each plugin must export a StepExecutor symbol.
func (r *Registry) LoadStepExecutorPlugins(pluginsPath string) ([]protocol.StepExecutorFactory, error) {
	return loadPlugin[protocol.StepExecutorFactory](r.logger, pluginsPath, "executors", "StepExecutor")
}

// LoadTriggerPlugins loads trigger factories from .so files under
// <pluginsPath>/triggers. Each plugin must export a Trigger symbol.
func (r *Registry) LoadTriggerPlugins(pluginsPath string) ([]protocol.TriggerFactory, error) {
	return loadPlugin[protocol.TriggerFactory](r.logger, pluginsPath, "triggers", "Trigger")
}

func validateConfig(schema map[string]any, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationError := range result.Errors() {
			messages = append(messages, validationError.String())
		}

		return fmt.Errorf("schema validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath, subdir, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + subdir
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", rootPath), slog.String("symbol", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export symbol %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s symbol %s has the wrong type", p, symbolName)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
