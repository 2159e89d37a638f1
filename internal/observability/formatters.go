// Package observability provides formatted output utilities for the CLI reports.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/wishlist-sync/internal/db"
	"github.com/jonathan/wishlist-sync/internal/pipeline"
	"github.com/jonathan/wishlist-sync/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 80
	// maxItemsToShow is the default number of failures to display per character
	maxItemsToShow = 5
)

// Printer handles formatted output for reports
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatrix outputs the expanded settings matrix, difficulties in the given order.
func (p *Printer) PrintMatrix(difficulties []types.Difficulty, matrix map[types.Difficulty][]types.SimSettings) {
	if len(matrix) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, d := range difficulties {
		list := matrix[d]
		total += len(list)
		sb.WriteString(fmt.Sprintf("%s (%d)\n", d, len(list)))
		for _, s := range list {
			sb.WriteString(fmt.Sprintf("  • %s\n", s))
		}
	}
	sb.WriteString(fmt.Sprintf("\nTotal (difficulty, config) pairs: %d", total))

	p.printBox("SETTINGS MATRIX", sb.String())
}

// CharacterPlan is the cell list of one character for plan output.
type CharacterPlan struct {
	Character types.Character
	Cells     []pipeline.CellPlan
}

// PrintPlan outputs every character's cell decisions without running anything.
func (p *Printer) PrintPlan(plan *pipeline.Plan, characters []CharacterPlan, excluded []types.Character) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Region:       %s\n", plan.Region))
	sb.WriteString(fmt.Sprintf("Current raid: %s\n", plan.CurrentRaid.Name))
	sb.WriteString(fmt.Sprintf("Characters:   %d (%d excluded)\n", len(characters), len(excluded)))

	sims := 0
	for _, cp := range characters {
		sb.WriteString(fmt.Sprintf("\n%s [%s]\n", cp.Character.FullName(), cp.Character.Role))
		for _, cell := range cp.Cells {
			sb.WriteString(fmt.Sprintf("  %-26s %-8s %s\n", cell.Raid.Name, cell.Difficulty, describeCell(cell)))
			if cell.Action == pipeline.ActionRun {
				sims += len(cell.Settings)
			}
		}
	}
	sb.WriteString(fmt.Sprintf("\nSimulations to launch: %d", sims))

	p.printBox("RUN PLAN", sb.String())
}

func describeCell(cell pipeline.CellPlan) string {
	switch cell.Action {
	case pipeline.ActionSkipUpToDate:
		return "skip (updated " + cell.LastUpdated.Format(time.RFC3339) + ")"
	case pipeline.ActionSkipRaidLevel:
		return "skip (raid skipped)"
	default:
		level := "capped"
		if !cell.Raid.IsCurrentTier {
			level = "uncapped"
		}
		return fmt.Sprintf("run %d sim(s), %s", len(cell.Settings), level)
	}
}

// PrintRunReport outputs the per-character outcome tally for a finished run.
func (p *Printer) PrintRunReport(report *pipeline.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Region:   %s\n", report.Region))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", report.Duration.Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Uploaded: %d  Skipped: %d  Failed: %d\n",
		report.Total(types.OutcomeUploaded),
		report.Total(types.OutcomeSkipped),
		report.Total(types.OutcomeLaunchFailed)+report.Total(types.OutcomePollFailed)+report.Total(types.OutcomeUploadFailed)))

	characters := append([]*pipeline.CharacterReport(nil), report.Characters...)
	sort.SliceStable(characters, func(i, j int) bool {
		return characters[i].Character.Name < characters[j].Character.Name
	})

	for _, c := range characters {
		sb.WriteString(fmt.Sprintf("\n%s", c.Character.FullName()))
		if c.Interrupted {
			sb.WriteString(" (interrupted)")
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  uploaded=%d skipped=%d launch_failed=%d poll_failed=%d upload_failed=%d\n",
			c.Count(types.OutcomeUploaded),
			c.Count(types.OutcomeSkipped),
			c.Count(types.OutcomeLaunchFailed),
			c.Count(types.OutcomePollFailed),
			c.Count(types.OutcomeUploadFailed)))

		var failures []types.CellRecord
		for _, rec := range c.Records {
			if rec.Outcome != types.OutcomeUploaded && rec.Outcome != types.OutcomeSkipped {
				failures = append(failures, rec)
			}
		}
		count := min(len(failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			rec := failures[i]
			sb.WriteString(fmt.Sprintf("  ✗ %s %s #%d: %s\n", rec.RaidName, rec.Difficulty, rec.ConfigIndex, rec.Outcome))
		}
		if len(failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(failures)-maxItemsToShow))
		}
	}

	if len(report.Excluded) > 0 {
		var names []string
		for _, c := range report.Excluded {
			names = append(names, c.Name)
		}
		sb.WriteString(fmt.Sprintf("\nExcluded: %s", strings.Join(names, ", ")))
	}

	p.printBox("RUN REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRuns outputs recorded runs, newest first.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("RUNS", "No runs recorded")
		return
	}

	var sb strings.Builder
	for _, run := range runs {
		finished := "-"
		if run.CompletedAt != nil {
			finished = run.CompletedAt.Sub(run.CreatedAt).Round(time.Second).String()
		}
		sb.WriteString(fmt.Sprintf("%s %-3s %-9s %s %s\n",
			run.ID, run.Region, run.Status, run.CreatedAt.UTC().Format("2006-01-02 15:04"), finished))
	}
	p.printBox("RUNS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunCells outputs one run and its recorded cells in the order they were written.
func (p *Printer) PrintRunCells(run *db.Run, cells []db.Cell) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Region:  %s\n", run.Region))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Started: %s\n", run.CreatedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Cells:   %d\n", len(cells)))

	character := ""
	for _, c := range cells {
		if c.CharacterName != character {
			character = c.CharacterName
			sb.WriteString(fmt.Sprintf("\n%s\n", character))
		}
		config := "all"
		if c.ConfigIndex >= 0 {
			config = fmt.Sprintf("#%d", c.ConfigIndex)
		}
		line := fmt.Sprintf("  %-26s %-8s %-4s %s", c.RaidName, c.Difficulty, config, c.Outcome)
		if c.JobID != nil {
			line += " job=" + *c.JobID
		}
		if c.ErrorMessage != nil {
			line += ": " + *c.ErrorMessage
		}
		sb.WriteString(line + "\n")
	}

	p.printBox("RUN "+run.ID.String(), strings.TrimSuffix(sb.String(), "\n"))
}
