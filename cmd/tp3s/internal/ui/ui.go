package ui

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/storage"
)

var (
	bold      = color.New(color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
	cyan      = color.New(color.FgCyan).SprintFunc()
	green     = color.New(color.FgGreen).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	boldBlue  = color.New(color.Bold, color.FgBlue).SprintFunc()
	boldGreen = color.New(color.Bold, color.FgGreen).SprintFunc()
)

var out io.Writer = color.Output

// SetOutput redirects all printing. Color is disabled for writers other
// than the terminal.
func SetOutput(w io.Writer) {
	out = w
	color.NoColor = w != color.Output || color.NoColor
}

// PrintHeader prints a section header
func PrintHeader(title string) {
	line := strings.Repeat("=", len(title)+4)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n\n", boldBlue(line), boldBlue("  "+title+"  "), boldBlue(line))
}

// PrintStep prints a step in progress
func PrintStep(message string) {
	fmt.Fprintf(out, "%s %s\n", cyan("▶"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(out, "%s %s\n", red("✗"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "%s %s\n", yellow("⚠"), message)
}

// PrintInfo prints an informational message
func PrintInfo(message string) {
	fmt.Fprintf(out, "  %s\n", message)
}

// PrintInstance summarizes the problem data.
func PrintInstance(inst *domain.Instance) {
	capacity := 0
	for _, g := range inst.Groups() {
		capacity += g.Capacity
	}
	PrintInfo(fmt.Sprintf("Instance:  %s", bold(inst.Name())))
	PrintInfo(fmt.Sprintf("Tests:     %d", inst.NumTests()))
	PrintInfo(fmt.Sprintf("Vehicles:  %d in %d release groups", capacity, len(inst.Groups())))
	PrintInfo(fmt.Sprintf("Horizon:   %d", inst.Horizon()))
}

// PrintObjective prints a solution value, or that none exists.
func PrintObjective(label string, v float64) {
	if math.IsInf(v, 0) {
		PrintWarning(fmt.Sprintf("%s: none", label))
		return
	}
	fmt.Fprintf(out, "\n%s %s\n", bold(label+":"), boldGreen(FormatValue(v)))
}

// PrintColumns prints the selected columns with their simulated timing.
func PrintColumns(inst *domain.Instance, cols []domain.ColumnWeight) {
	headers := []string{"#", "RELEASE", "SEQUENCE", "TARDINESS", "FINISH", "WEIGHT"}
	rows := make([][]string, 0, len(cols))
	for i, cw := range cols {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(cw.Column.Release),
			formatSequence(cw.Column.Sequence),
			strconv.Itoa(cw.Column.Cost),
			strconv.Itoa(domain.CompletionTime(inst, cw.Column.Sequence, cw.Column.Release)),
			FormatValue(cw.Weight),
		})
	}
	PrintTable(headers, rows)
}

// PrintStats prints search statistics.
func PrintStats(s domain.SearchStats) {
	PrintInfo(fmt.Sprintf("Nodes:       %d processed, %d pruned, %d integral, %d branched, %d infeasible",
		s.NodesProcessed, s.NodesPruned, s.NodesIntegral, s.NodesBranched, s.NodesInfeasible))
	PrintInfo(fmt.Sprintf("Columns:     %d seeded, %d heuristic, %d exact",
		s.ColumnsSeeded, s.ColumnsHeuristic, s.ColumnsExact))
	PrintInfo(fmt.Sprintf("Root bound:  %s", FormatValue(s.RootBound)))
	PrintInfo(fmt.Sprintf("Max depth:   %d", s.MaxDepth))
	PrintInfo(fmt.Sprintf("Incumbents:  %d", s.IncumbentUpdates))
	if s.IterationCapHits > 0 {
		PrintWarning(fmt.Sprintf("Column generation hit its iteration cap %d times", s.IterationCapHits))
	}
	PrintInfo(fmt.Sprintf("Elapsed:     %s", FormatDuration(s.Elapsed)))
}

// PrintRuns prints a run history table.
func PrintRuns(runs []*storage.Run) {
	headers := []string{"ID", "INSTANCE", "STATUS", "OBJECTIVE", "NODES", "STARTED"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		obj := "-"
		if r.Objective != nil {
			obj = FormatValue(*r.Objective)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.InstanceName,
			statusColor(r.Status),
			obj,
			strconv.Itoa(r.Stats.NodesProcessed),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	PrintTable(headers, rows)
}

// PrintRun prints one recorded run with its columns.
func PrintRun(r *storage.Run) {
	PrintInfo(fmt.Sprintf("Run:       %s", r.ID))
	PrintInfo(fmt.Sprintf("Instance:  %s", r.InstanceName))
	PrintInfo(fmt.Sprintf("Status:    %s", statusColor(r.Status)))
	if r.Objective != nil {
		PrintInfo(fmt.Sprintf("Objective: %s", FormatValue(*r.Objective)))
	}
	if r.Error != "" {
		PrintInfo(fmt.Sprintf("Error:     %s", red(r.Error)))
	}
	PrintInfo(fmt.Sprintf("Duration:  %s", FormatDuration(r.FinishedAt.Sub(r.CreatedAt))))
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(r.Columns))
	for i, c := range r.Columns {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(c.Release),
			formatSequence(c.Sequence),
			strconv.Itoa(c.Cost),
			FormatValue(c.Weight),
		})
	}
	PrintTable([]string{"#", "RELEASE", "SEQUENCE", "TARDINESS", "WEIGHT"}, rows)
	fmt.Fprintln(out)
	PrintStats(r.Stats)
}

func statusColor(s storage.RunStatus) string {
	switch s {
	case storage.RunOptimal:
		return green(string(s))
	case storage.RunIncomplete:
		return yellow(string(s))
	default:
		return red(string(s))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatSequence(seq []int) string {
	parts := make([]string, len(seq))
	for i, t := range seq {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, " → ")
}

// FormatValue prints integral values without decimals.
func FormatValue(v float64) string {
	if math.IsInf(v, 0) {
		return "∞"
	}
	if math.Abs(v-math.Round(v)) < 1e-6 {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// PrintTable prints a simple table
func PrintTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		PrintInfo(dim("(none)"))
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := visibleLen(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for i, h := range headers {
		fmt.Fprintf(out, "%s  ", bold(pad(h, widths[i])))
	}
	fmt.Fprintln(out)
	for _, w := range widths {
		fmt.Fprint(out, strings.Repeat("-", w)+"  ")
	}
	fmt.Fprintln(out)
	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprintf(out, "%s  ", pad(cell, widths[i]))
		}
		fmt.Fprintln(out)
	}
}

func pad(s string, width int) string {
	if n := visibleLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// visibleLen counts runes outside ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
