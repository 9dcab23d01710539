package swagger

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError reports a $ref whose target is missing, null, or outside the document.
type UnresolvedReferenceError struct {
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q", e.Ref)
}

// CyclicReferenceError reports a $ref that leads back to itself while being expanded.
// Chain lists the refs in expansion order, ending with the repeated one.
type CyclicReferenceError struct {
	Ref   string
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference %q: %s", e.Ref, strings.Join(e.Chain, " -> "))
}
