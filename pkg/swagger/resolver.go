package swagger

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// excludedResponses are shared error envelopes left as $ref. They describe failures, not the
// shape of a tool result, and expanding them bloats every operation.
var excludedResponses = map[string]struct{}{
	"BadRequest":          {},
	"Unauthorized":        {},
	"PaymentRequired":     {},
	"Forbidden":           {},
	"NotFound":            {},
	"Conflict":            {},
	"APIError":            {},
	"InternalServerError": {},
}

// IsExcludedResponse reports whether responses under key keep their $ref during expansion.
func IsExcludedResponse(key string) bool {
	_, ok := excludedResponses[key]
	return ok
}

// resolver expands local $refs against a fixed root. expanded memoises fully expanded targets,
// active holds the refs currently being expanded.
type resolver struct {
	root     map[string]any
	expanded map[string]any
	active   map[string]bool
	chain    []string
}

// ExpandReferences returns a copy of doc in which every local $ref under paths, parameters,
// responses, definitions and components is replaced by the value it points to. The input is
// not modified. Any ref that cannot be followed aborts with UnresolvedReferenceError, and a ref
// that leads back to itself aborts with CyclicReferenceError.
func ExpandReferences(doc Document) (Document, error) {
	src := Clone(map[string]any(doc)).(map[string]any)
	r := &resolver{
		root:     src,
		expanded: make(map[string]any),
		active:   make(map[string]bool),
	}

	out := make(Document, len(src))
	for key, value := range src {
		var (
			expanded any
			err      error
		)
		switch key {
		case "paths":
			expanded, err = r.expandPaths(value)
		case "parameters", "definitions":
			expanded, err = r.expand(value)
		case "responses":
			expanded, err = r.expandResponses(value)
		case "components":
			expanded, err = r.expandComponents(value)
		default:
			expanded = value
		}
		if err != nil {
			return nil, err
		}
		out[key] = expanded
	}
	return out, nil
}

// Resolve expands references and then normalises whitespace.
func Resolve(doc Document) (Document, error) {
	expanded, err := ExpandReferences(doc)
	if err != nil {
		return nil, err
	}
	return CleanText(expanded), nil
}

func (r *resolver) expandPaths(value any) (any, error) {
	paths, ok := value.(map[string]any)
	if !ok {
		return r.expand(value)
	}
	out := make(map[string]any, len(paths))
	for route, item := range paths {
		methods, ok := item.(map[string]any)
		_, isRef := methods["$ref"]
		if !ok || isRef {
			expanded, err := r.expand(item)
			if err != nil {
				return nil, err
			}
			out[route] = expanded
			continue
		}
		expandedItem := make(map[string]any, len(methods))
		for verb, op := range methods {
			var (
				expanded any
				err      error
			)
			if operation, ok := op.(map[string]any); ok && verb != "parameters" {
				expanded, err = r.expandOperation(operation)
			} else {
				expanded, err = r.expand(op)
			}
			if err != nil {
				return nil, err
			}
			expandedItem[verb] = expanded
		}
		out[route] = expandedItem
	}
	return out, nil
}

func (r *resolver) expandOperation(op map[string]any) (any, error) {
	if _, ok := op["$ref"]; ok {
		return r.expand(op)
	}
	out := make(map[string]any, len(op))
	for key, value := range op {
		var (
			expanded any
			err      error
		)
		if key == "responses" {
			expanded, err = r.expandResponses(value)
		} else {
			expanded, err = r.expand(value)
		}
		if err != nil {
			return nil, err
		}
		out[key] = expanded
	}
	return out, nil
}

// expandResponses expands a responses mapping, leaving excluded envelopes untouched. An entry
// is excluded by its own key or, under a status code, by a $ref to an excluded shared response.
func (r *resolver) expandResponses(value any) (any, error) {
	responses, ok := value.(map[string]any)
	if !ok {
		return r.expand(value)
	}
	out := make(map[string]any, len(responses))
	for key, response := range responses {
		if IsExcludedResponse(key) || refersToExcluded(response) {
			out[key] = response
			continue
		}
		expanded, err := r.expand(response)
		if err != nil {
			return nil, err
		}
		out[key] = expanded
	}
	return out, nil
}

// refersToExcluded reports whether response is a $ref to #/responses/<name> or
// #/components/responses/<name> with an excluded name.
func refersToExcluded(response any) bool {
	m, ok := response.(map[string]any)
	if !ok {
		return false
	}
	ref, ok := m["$ref"].(string)
	if !ok {
		return false
	}
	for _, prefix := range []string{"#/responses/", "#/components/responses/"} {
		if name, found := strings.CutPrefix(ref, prefix); found {
			return IsExcludedResponse(name)
		}
	}
	return false
}

func (r *resolver) expandComponents(value any) (any, error) {
	components, ok := value.(map[string]any)
	if !ok {
		return r.expand(value)
	}
	out := make(map[string]any, len(components))
	for key, section := range components {
		var (
			expanded any
			err      error
		)
		if key == "responses" {
			expanded, err = r.expandResponses(section)
		} else {
			expanded, err = r.expand(section)
		}
		if err != nil {
			return nil, err
		}
		out[key] = expanded
	}
	return out, nil
}

func (r *resolver) expand(value any) (any, error) {
	switch t := value.(type) {
	case map[string]any:
		if ref, ok := t["$ref"]; ok {
			s, ok := ref.(string)
			if !ok {
				return nil, &UnresolvedReferenceError{Ref: fmt.Sprint(ref)}
			}
			return r.follow(s)
		}
		out := make(map[string]any, len(t))
		for key, val := range t {
			expanded, err := r.expand(val)
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			expanded, err := r.expand(val)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return value, nil
	}
}

func (r *resolver) follow(ref string) (any, error) {
	if cached, ok := r.expanded[ref]; ok {
		return Clone(cached), nil
	}
	if r.active[ref] {
		chain := append(append([]string(nil), r.chain...), ref)
		return nil, &CyclicReferenceError{Ref: ref, Chain: chain}
	}

	target, ok := lookup(r.root, ref)
	if !ok {
		return nil, &UnresolvedReferenceError{Ref: ref}
	}

	r.active[ref] = true
	r.chain = append(r.chain, ref)
	expanded, err := r.expand(target)
	r.chain = r.chain[:len(r.chain)-1]
	delete(r.active, ref)
	if err != nil {
		return nil, err
	}

	r.expanded[ref] = expanded
	return Clone(expanded), nil
}

// lookup follows a local JSON pointer such as "#/definitions/Pet" from the root.
func lookup(root map[string]any, ref string) (any, bool) {
	if !strings.HasPrefix(ref, "#") {
		return nil, false
	}
	pointer := strings.Trim(ref, "#/")
	if pointer == "" {
		return root, true
	}

	var current any = root
	for _, part := range strings.Split(pointer, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")

		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				// URI fragments may percent-encode the token; the literal key is tried first.
				unescaped, err := url.PathUnescape(part)
				if err != nil || unescaped == part {
					return nil, false
				}
				if next, ok = node[unescaped]; !ok {
					return nil, false
				}
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
