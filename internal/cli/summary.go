package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"zonecrawl/pkg/pipeline"
)

// printSummary writes the run-end summary for one stage. Failures are
// enumerated so downstream consumers can re-run just the gaps.
func printSummary(w io.Writer, stage string, run pipeline.Run, elapsed time.Duration, failed []string) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", bold(stage+" summary"))
	fmt.Fprintf(w, "  units:     %d/%d completed in %s\n", run.Completed, run.Total, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  success:   %s\n", green(run.Success))
	if run.Empty > 0 {
		fmt.Fprintf(w, "  empty:     %s\n", yellow(run.Empty))
	}
	if run.Failed > 0 {
		fmt.Fprintf(w, "  failed:    %s\n", red(run.Failed))
	} else {
		fmt.Fprintf(w, "  failed:    %d\n", run.Failed)
	}

	if len(failed) > 0 {
		fmt.Fprintf(w, "  failed ids: %s\n", red(joinLimited(failed, 10)))
	}
}

// joinLimited joins up to max elements, summarizing the rest.
func joinLimited(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)", strings.Join(items[:max], ", "), len(items)-max)
}
