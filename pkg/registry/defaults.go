// Package registry provides default component registration for the registry system.
package registry

import (
	stephttp "github.com/ideonhq/ideon/pkg/stepexec/httprequest"
	stepopenai "github.com/ideonhq/ideon/pkg/stepexec/openai"
	steptemplate "github.com/ideonhq/ideon/pkg/stepexec/template"
	"github.com/ideonhq/ideon/pkg/triggers/kafka"
	"github.com/ideonhq/ideon/pkg/triggers/queue"
	"github.com/ideonhq/ideon/pkg/triggers/schedule"
)

// RegisterDefaultStepExecutors registers all built-in step executor factories
// with the registry.
func (r *Registry) RegisterDefaultStepExecutors() {
	// Register Template executor
	r.RegisterStepExecutor(steptemplate.NewFactory())

	// Register OpenAI executor
	r.RegisterStepExecutor(stepopenai.NewFactory())

	// Register HTTP request executor
	r.RegisterStepExecutor(stephttp.NewFactory())
}

// RegisterDefaultTriggers registers all built-in trigger factories with the
// registry.
func (r *Registry) RegisterDefaultTriggers() {
	// Register Queue trigger
	r.RegisterTrigger(queue.NewFactory())

	// Register Schedule trigger
	r.RegisterTrigger(schedule.NewFactory())

	// Register Kafka trigger
	r.RegisterTrigger(kafka.NewFactory())
}
