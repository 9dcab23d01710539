package openapi2mcp

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// toolEntry is everything needed to answer a call for one tool.
type toolEntry struct {
	tool      Tool
	operation swagger.OperationDefinition
	params    []Parameter
	validator *gojsonschema.Schema
}

// ToolTable is the immutable set of tools built from one document. Build a new table to pick up
// document changes; a table is safe for concurrent use.
type ToolTable struct {
	entries  map[string]*toolEntry
	order    []string
	validate bool
}

// NewToolTable builds tools for the operations selected by opts. Problems that do not stop a tool
// from working (shadowed operation ids, unroutable parameters, schemas that cannot be compiled
// for validation) are logged.
func NewToolTable(ops *swagger.Operations, opts *ToolGenOptions, logger *zap.Logger) *ToolTable {
	if opts == nil {
		opts = &ToolGenOptions{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "tool_table"))

	for _, name := range ops.Duplicates() {
		logger.Warn("duplicate operationId, earlier operation shadowed", zap.String("operation", name))
	}

	include := make(map[string]bool, len(opts.Include))
	for _, name := range opts.Include {
		include[name] = true
	}

	t := &ToolTable{
		entries:  make(map[string]*toolEntry),
		validate: opts.ValidateArguments,
	}
	selected := ops.Filter(func(op swagger.OperationDefinition) bool {
		if len(include) > 0 && !include[op.Name] {
			return false
		}
		return len(opts.TagFilter) == 0 || op.HasTag(opts.TagFilter...)
	})
	for _, op := range selected.All() {
		params := ParseParameters(op.Parameters())
		for _, p := range params {
			if other, ok := p.(OtherParam); ok {
				logger.Info("parameter is described but not sent",
					zap.String("operation", op.Name),
					zap.String("parameter", other.Name),
					zap.String("in", other.In))
			}
		}

		tool := ToTool(op)
		if opts.PostProcessSchema != nil {
			tool.InputSchema = opts.PostProcessSchema(tool.Name, tool.InputSchema)
		}

		entry := &toolEntry{tool: tool, operation: op, params: params}
		if opts.ValidateArguments {
			validator, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
			if err != nil {
				logger.Warn("input schema cannot be compiled, arguments will not be validated",
					zap.String("operation", op.Name), zap.Error(err))
			}
			entry.validator = validator
		}

		t.entries[op.Name] = entry
		t.order = append(t.order, op.Name)
	}

	for _, name := range opts.Include {
		if _, ok := t.entries[name]; !ok {
			logger.Warn("included operation not found in document", zap.String("operation", name))
		}
	}
	logger.Info("tool table built", zap.Int("tools", len(t.order)), zap.Int("operations", ops.Len()))
	return t
}

// Tools returns the tools in table order.
func (t *ToolTable) Tools() []Tool {
	tools := make([]Tool, 0, len(t.order))
	for _, name := range t.order {
		tools = append(tools, t.entries[name].tool)
	}
	return tools
}

// Names returns tool names in table order.
func (t *ToolTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of tools.
func (t *ToolTable) Len() int {
	return len(t.order)
}

// Tool returns the tool registered under name.
func (t *ToolTable) Tool(name string) (Tool, bool) {
	entry, ok := t.entries[name]
	if !ok {
		return Tool{}, false
	}
	return entry.tool, true
}

// Lookup returns the operation and parameters behind a tool.
func (t *ToolTable) Lookup(name string) (swagger.OperationDefinition, []Parameter, error) {
	entry, ok := t.entries[name]
	if !ok {
		return swagger.OperationDefinition{}, nil, &UnsupportedOperationError{Name: name}
	}
	return entry.operation, entry.params, nil
}

// ValidateArguments checks args against the tool's input schema when validation is enabled.
func (t *ToolTable) ValidateArguments(name string, args map[string]any) error {
	entry, ok := t.entries[name]
	if !ok {
		return &UnsupportedOperationError{Name: name}
	}
	if !t.validate || entry.validator == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := entry.validator.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("failed to validate arguments for '%s': %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ArgumentValidationError{Operation: name, Problems: problems}
}
