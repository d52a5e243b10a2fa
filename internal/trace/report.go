// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"fmt"
	"io"
)

// Report prints the issues of r one per line, or a success line naming
// the number of checked elements. It reports whether the run failed; an
// empty element set always fails.
func Report(w io.Writer, elements int, r Result) bool {
	if elements == 0 {
		fmt.Fprintln(w, "No elements.")
		return true
	}
	for _, line := range r.Issues {
		fmt.Fprintln(w, line)
	}
	if r.HasErrors() {
		return true
	}
	fmt.Fprintf(w, "No issues found with any of the %d specs\n", elements)
	return false
}
