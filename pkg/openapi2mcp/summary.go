// summary.go
package openapi2mcp

import (
	"fmt"
	"io"
	"sort"

	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// PrintToolSummary prints a human-readable summary of the operations that will be served as tools.
//
// This function analyzes the provided operations and outputs:
//   - Total number of tools that will be generated
//   - Breakdown by tags showing operation count per tag
//
// Example usage:
//
//	ops := swagger.ExtractOperations(doc)
//	openapi2mcp.PrintToolSummary(os.Stdout, ops.All())
//
// Output example:
//
//	Total tools: 12
//	Tags:
//	  pets: 8
//	  store: 3
//	  user: 1
func PrintToolSummary(w io.Writer, ops []swagger.OperationDefinition) {
	tagCount := map[string]int{}
	untagged := 0
	for _, op := range ops {
		if len(op.Tags) == 0 {
			untagged++
		}
		for _, tag := range op.Tags {
			tagCount[tag]++
		}
	}
	fmt.Fprintf(w, "Total tools: %d\n", len(ops))
	if len(tagCount) > 0 {
		tags := make([]string, 0, len(tagCount))
		for tag := range tagCount {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		fmt.Fprintln(w, "Tags:")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %s: %d\n", tag, tagCount[tag])
		}
	}
	if untagged > 0 {
		fmt.Fprintf(w, "Untagged: %d\n", untagged)
	}
}
