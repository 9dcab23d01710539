package swagger

import (
	"sort"

	"github.com/spf13/cast"
)

// OperationDefinition is one callable operation lifted out of the paths tree.
type OperationDefinition struct {
	Name       string         `json:"name"`
	Tags       []string       `json:"tags"`
	Method     string         `json:"method"`
	Route      string         `json:"route"`
	Definition map[string]any `json:"definition"`
}

// Description returns the operation description, falling back to its summary.
func (o OperationDefinition) Description() string {
	if desc, ok := o.Definition["description"]; ok && desc != nil {
		return cast.ToString(desc)
	}
	return cast.ToString(o.Definition["summary"])
}

// Parameters returns the raw (already expanded) parameter list of the operation.
func (o OperationDefinition) Parameters() []any {
	params, _ := o.Definition["parameters"].([]any)
	return params
}

// HasTag reports whether the operation carries any of the given tags.
func (o OperationDefinition) HasTag(tags ...string) bool {
	for _, want := range tags {
		for _, tag := range o.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// Operations maps operationId to its definition and remembers extraction order.
type Operations struct {
	byName     map[string]OperationDefinition
	names      []string
	duplicates []string
}

// ExtractOperations walks paths (routes and verbs in sorted order) and collects every operation
// object that has an operationId. When two operations share an id the later one wins.
func ExtractOperations(doc Document) *Operations {
	ops := &Operations{byName: make(map[string]OperationDefinition)}

	paths, _ := doc["paths"].(map[string]any)
	for _, route := range sortedKeys(paths) {
		methods, ok := paths[route].(map[string]any)
		if !ok {
			continue
		}
		for _, verb := range sortedKeys(methods) {
			definition, ok := methods[verb].(map[string]any)
			if !ok {
				continue
			}
			id, ok := definition["operationId"]
			if !ok {
				continue
			}
			ops.add(OperationDefinition{
				Name:       cast.ToString(id),
				Tags:       cast.ToStringSlice(definition["tags"]),
				Method:     verb,
				Route:      route,
				Definition: definition,
			})
		}
	}
	return ops
}

func (o *Operations) add(op OperationDefinition) {
	if _, exists := o.byName[op.Name]; exists {
		o.duplicates = append(o.duplicates, op.Name)
	} else {
		o.names = append(o.names, op.Name)
	}
	o.byName[op.Name] = op
}

// Get returns the operation registered under name.
func (o *Operations) Get(name string) (OperationDefinition, bool) {
	op, ok := o.byName[name]
	return op, ok
}

// Names returns operation ids in extraction order.
func (o *Operations) Names() []string {
	return append([]string(nil), o.names...)
}

// Len returns the number of distinct operations.
func (o *Operations) Len() int {
	return len(o.names)
}

// Duplicates lists operation ids that appeared more than once, one entry per shadowed copy.
func (o *Operations) Duplicates() []string {
	return append([]string(nil), o.duplicates...)
}

// All returns the operations in extraction order.
func (o *Operations) All() []OperationDefinition {
	out := make([]OperationDefinition, 0, len(o.names))
	for _, name := range o.names {
		out = append(out, o.byName[name])
	}
	return out
}

// Filter returns the operations for which keep returns true.
func (o *Operations) Filter(keep func(OperationDefinition) bool) *Operations {
	out := &Operations{byName: make(map[string]OperationDefinition)}
	for _, name := range o.names {
		if op := o.byName[name]; keep(op) {
			out.add(op)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
