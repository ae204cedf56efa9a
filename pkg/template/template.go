// Package template renders text templates against a run's execution context.
// Step executors use it to expand prompt and output templates.
package template

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/ideonhq/ideon/pkg/models"
)

// RenderWithContext renders input against the standard step-executor data:
// original_idea, current_input, executed_nodes ({node_id, title, output} maps
// in run order), node ({id, title, detail, category, tags, search_query}),
// and env.
func RenderWithContext(input string, node *models.WorkflowNode, execCtx models.ExecutionContext) (string, error) {
	executedNodes := make([]map[string]any, 0, len(execCtx.ExecutedNodes))

	for _, executed := range execCtx.ExecutedNodes {
		executedNodes = append(executedNodes, map[string]any{
			"node_id": executed.NodeID,
			"title":   executed.Title,
			"output":  executed.Output,
		})
	}

	data := map[string]any{
		"original_idea":  execCtx.OriginalIdea,
		"current_input":  execCtx.CurrentInput,
		"executed_nodes": executedNodes,
		"env":            getEnvVars(),
	}

	if node != nil {
		data["node"] = map[string]any{
			"id":           node.ID,
			"title":        node.Title,
			"detail":       node.Detail,
			"category":     string(node.Category),
			"tags":         node.Tags,
			"search_query": node.SearchQuery,
		}
	}

	return Render(input, data)
}

// Render renders templateStr against data with the now and rand helper
// functions available.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("step").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)

				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// NeedsTemplating reports whether input contains template actions. Literal
// strings can skip the parse and execute round trip.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// getEnvVars returns environment variables as a map.
func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
