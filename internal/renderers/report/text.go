package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dejo1307/modmap/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════════"

// WriteCommunities prints a plain-text community report: the members of
// each community, the links between communities and the simplified
// community graph.
func WriteCommunities(w io.Writer, r *model.CommunityResult) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "Communities detected:\n\n")
	for i, label := range r.Order {
		fmt.Fprintf(bw, "Community #%d (representative: %s):\n", i+1, label)
		for _, node := range r.Groups[label] {
			fmt.Fprintf(bw, "  - %s\n", node)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprint(bw, "Dependencies between communities:\n\n")
	found := false
	for i, from := range r.Order {
		header := false
		for j, to := range r.Order {
			n := r.Dependencies[from][to]
			if from == to || n == 0 {
				continue
			}
			if !header {
				fmt.Fprintf(bw, "Community #%d (%s) depends on:\n", i+1, from)
				header = true
				found = true
			}
			fmt.Fprintf(bw, "  → Community #%d (%s): %d link(s)\n", j+1, to, n)
		}
		if header {
			fmt.Fprintln(bw)
		}
	}
	if !found {
		fmt.Fprint(bw, "No dependencies between communities detected.\n\n")
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprint(bw, "Community graph (simplified format):\n\n")
	for i, label := range r.Order {
		targets := r.CommunityGraph[label]
		if len(targets) == 0 {
			continue
		}
		nums := make([]string, len(targets))
		for k, t := range targets {
			nums[k] = fmt.Sprintf("#%d", r.Index(t))
		}
		fmt.Fprintf(bw, "Community #%d → %s\n", i+1, strings.Join(nums, ", "))
	}
	fmt.Fprintln(bw)

	if !r.Converged {
		fmt.Fprintf(bw, "Warning: detection stopped after %d passes without converging.\n", r.Passes)
	}

	return bw.Flush()
}
