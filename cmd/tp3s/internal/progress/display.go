package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/pricing"
)

var outcomeOrder = []domain.NodeOutcome{
	domain.OutcomeBranched,
	domain.OutcomeIntegral,
	domain.OutcomePruned,
	domain.OutcomeInfeasible,
}

// RenderStateSummary renders a one-line summary of the search
func RenderStateSummary(s State) string {
	incumbent := "none"
	if s.HasIncumbent() {
		incumbent = fmt.Sprintf("%.2f (at %s)", s.Incumbent, formatDuration(s.IncumbentAt))
	}
	return fmt.Sprintf("%s | %d nodes | %d pending | depth %d | %d columns | incumbent %s",
		formatDuration(s.Elapsed), s.Nodes, s.Frontier, s.MaxDepth,
		s.Columns[pricing.SourceHeuristic]+s.Columns[pricing.SourceExact], incumbent)
}

// RenderOutcomeTree renders node outcomes and priced columns with
// box-drawing characters
func RenderOutcomeTree(s State) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Nodes (%d)\n", s.Nodes)
	for i, o := range outcomeOrder {
		writeBranch(&buf, i == len(outcomeOrder)-1, titleCase(o.String()), s.Outcomes[o])
	}

	fmt.Fprintf(&buf, "Pricing (%d rounds)\n", s.PricingRounds)
	writeBranch(&buf, false, "Heuristic", s.Columns[pricing.SourceHeuristic])
	writeBranch(&buf, true, "Exact", s.Columns[pricing.SourceExact])
	return buf.String()
}

func writeBranch(buf *strings.Builder, isLast bool, label string, n int) {
	if isLast {
		buf.WriteString("└── ")
	} else {
		buf.WriteString("├── ")
	}
	fmt.Fprintf(buf, "%-10s %d\n", label, n)
}

// Report writes a summary line to w every interval until ctx is done.
func Report(ctx context.Context, w io.Writer, t *Tracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, "[progress] %s\n", RenderStateSummary(t.Snapshot()))
		}
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
