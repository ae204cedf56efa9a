package template

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ideonhq/ideon/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecutor_Execute(t *testing.T) {
	config := map[string]any{
		"template": "{{.node.title}} saw {{.current_input}}",
	}

	executor, err := NewExecutor(config, testLogger())
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	node := &models.WorkflowNode{
		ID:       "node-1",
		Title:    "Collect data",
		Category: models.CategoryCollect,
		Status:   models.NodeStatusPending,
	}

	execCtx := models.NewExecutionContext("Collect customer feedback")

	result, err := executor.Execute(context.Background(), node, execCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected successful result")
	}

	if result.Output != "Collect data saw Collect customer feedback" {
		t.Errorf("Unexpected output: %s", result.Output)
	}
}

func TestExecutor_Execute_DefaultTemplate(t *testing.T) {
	executor, err := NewExecutor(map[string]any{}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	node := &models.WorkflowNode{
		ID:       "node-1",
		Title:    "Analyze results",
		Category: models.CategoryAnalyze,
	}

	result, err := executor.Execute(context.Background(), node, models.NewExecutionContext("quarterly numbers"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Output != "Analyze results: handled quarterly numbers" {
		t.Errorf("Unexpected output: %s", result.Output)
	}
}

func TestExecutor_Execute_StaticTemplate(t *testing.T) {
	// A template without placeholders is returned as-is.
	executor, err := NewExecutor(map[string]any{"template": "static output"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	node := &models.WorkflowNode{ID: "node-1", Title: "Anything"}

	result, err := executor.Execute(context.Background(), node, models.NewExecutionContext("idea"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Output != "static output" {
		t.Errorf("Unexpected output: %s", result.Output)
	}
}

func TestExecutor_Execute_ExecutedNodes(t *testing.T) {
	config := map[string]any{
		"template": "{{range .executed_nodes}}<{{.title}}>{{end}}",
	}

	executor, err := NewExecutor(config, testLogger())
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	first := &models.WorkflowNode{ID: "node-1", Title: "Collect data"}
	second := &models.WorkflowNode{ID: "node-2", Title: "Analyze it"}

	execCtx := models.NewExecutionContext("idea")
	execCtx = execCtx.Advance(first, "14 records")
	execCtx = execCtx.Advance(second, "trend is up")

	result, err := executor.Execute(context.Background(), &models.WorkflowNode{ID: "node-3", Title: "Report"}, execCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Output != "<Collect data><Analyze it>" {
		t.Errorf("Unexpected output: %s", result.Output)
	}
}

func TestExecutor_Execute_TemplateError(t *testing.T) {
	// Invalid template syntax surfaces as an error so the node blocks.
	executor, err := NewExecutor(map[string]any{"template": "{{.node.title"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	node := &models.WorkflowNode{ID: "node-1", Title: "Broken"}

	_, err = executor.Execute(context.Background(), node, models.NewExecutionContext("idea"))
	if err == nil {
		t.Fatal("Expected error for invalid template syntax")
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	if factory.ID() != "template" {
		t.Errorf("Expected ID 'template', got: %s", factory.ID())
	}

	if factory.Name() != "Template" {
		t.Errorf("Expected name 'Template', got: %s", factory.Name())
	}

	if factory.Description() == "" {
		t.Error("Expected a non-empty description")
	}

	schema := factory.Schema()
	if schema == nil {
		t.Fatal("Expected schema to be defined")
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("Expected properties in schema")
	}

	if _, ok := properties["template"]; !ok {
		t.Error("Expected 'template' property in schema")
	}

	executor, err := factory.Create(context.Background(), map[string]any{}, testLogger())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if executor == nil {
		t.Fatal("Expected executor instance")
	}
}
