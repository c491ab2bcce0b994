// Package observability renders session state for the terminal.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/gateway"
	"github.com/jonathan/resumeflow/internal/registry"
	"github.com/jonathan/resumeflow/internal/score"
	"github.com/jonathan/resumeflow/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 84
	// maxLinesToShow is how many output lines a box shows outside verbose mode
	maxLinesToShow = 12
	// noScore stands in for an empty fit score
	noScore = "N/A"
)

// Printer handles formatted output for the CLI
type Printer struct {
	out     io.Writer
	verbose bool

	errColor  *color.Color
	busyColor *color.Color
	okColor   *color.Color
	dimColor  *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{
		out:       out,
		verbose:   verbose,
		errColor:  color.New(color.FgRed, color.Bold),
		busyColor: color.New(color.FgYellow),
		okColor:   color.New(color.FgGreen),
		dimColor:  color.New(color.Faint),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDocument outputs the stage, inputs and available operations of the current document.
func (p *Printer) PrintDocument(doc workflow.Document) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Stage:    %s\n", doc.Stage))
	if doc.File != nil {
		sb.WriteString(fmt.Sprintf("File:     %s (%d pages)\n", doc.File.Name, doc.File.Pages))
	} else {
		sb.WriteString("File:     -\n")
	}
	if doc.ExtractedName != "" {
		sb.WriteString(fmt.Sprintf("Name:     %s\n", doc.ExtractedName))
	}
	sb.WriteString(fmt.Sprintf("JD role:  %s\n", doc.JDRole))
	if doc.JDText == "" {
		sb.WriteString("JD text:  (empty)\n")
	} else {
		sb.WriteString(fmt.Sprintf("JD text:  %d chars\n", len([]rune(doc.JDText))))
	}
	sb.WriteString(fmt.Sprintf("Fit:      %s\n", score.NormalizeOr(doc.Outputs.FitScore, noScore)))

	if ms := doc.Milestones(); len(ms) > 0 {
		names := make([]string, len(ms))
		for i, m := range ms {
			names[i] = string(m)
		}
		sb.WriteString(fmt.Sprintf("Done:     %s\n", strings.Join(names, ", ")))
	}

	sb.WriteString("Next:")
	ops := doc.Available()
	if len(ops) == 0 {
		sb.WriteString("     select a file")
	}
	for _, op := range ops {
		sb.WriteString(fmt.Sprintf("\n  • %s", op))
	}

	p.printBox("DOCUMENT", sb.String())
}

// PrintOutput outputs the text of view v. Outside verbose mode long outputs are cut.
func (p *Printer) PrintOutput(doc workflow.Document, v workflow.View) {
	text := doc.Output(v)
	if text == "" {
		text = "(no output yet)"
	}

	if p.verbose {
		fmt.Fprintf(p.out, "== %s ==\n%s\n", strings.ToUpper(string(v)), text) //nolint:errcheck
		return
	}

	lines := strings.Split(text, "\n")
	if len(lines) > maxLinesToShow {
		more := len(lines) - maxLinesToShow
		lines = append(lines[:maxLinesToShow], fmt.Sprintf("... and %d more lines (use --verbose)", more))
	}
	p.printBox(strings.ToUpper(string(v)), strings.Join(lines, "\n"))
}

// PrintCatalog outputs the selectable job description roles and filters.
func (p *Printer) PrintCatalog(c workflow.Catalog) {
	if !c.Loaded() {
		return
	}
	var sb strings.Builder
	sb.WriteString("Job descriptions:\n")
	for _, role := range c.JDChoices() {
		sb.WriteString(fmt.Sprintf("  • %s\n", role))
	}
	sb.WriteString("Filters:\n")
	for _, role := range c.FilterChoices() {
		sb.WriteString(fmt.Sprintf("  • %s\n", role))
	}
	p.printBox("ROLES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSaved outputs the saved list with normalized scores and the open detail, if any.
func (p *Printer) PrintSaved(records []analysis.SavedRecord, c registry.Criteria, openID string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Filter: %s   Sort: %s %s\n\n", c.Filter, c.SortKey, c.SortOrder))

	if len(records) == 0 {
		sb.WriteString("No saved resumes.")
		p.printBox("SAVED RESUMES", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("%-4s %-20s %-18s %-9s %s\n", "#", "NAME", "ROLE", "SCORE", "SAVED"))
	for i, rec := range records {
		marker := " "
		if rec.ID == openID {
			marker = "▸"
		}
		sb.WriteString(fmt.Sprintf("%s%-3d %-20s %-18s %-9s %s\n",
			marker,
			i+1,
			truncate(rec.PersonName, 20),
			truncate(rec.JDRole, 18),
			score.NormalizeOr(rec.FitScoreText, noScore),
			truncate(rec.Timestamp, 19),
		))
		sb.WriteString(fmt.Sprintf("     id: %s\n", rec.ID))
	}
	p.printBox("SAVED RESUMES", strings.TrimSuffix(sb.String(), "\n"))

	for _, rec := range records {
		if rec.ID == openID && rec.QADetail != nil {
			p.printBox("INTERVIEW Q&A: "+rec.PersonName, *rec.QADetail)
		}
	}
}

// PrintGateway outputs the busy flag and the last error.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGateway(st gateway.State) {
	if st.Busy {
		p.busyColor.Fprintln(p.out, "⏳ working...")
	}
	if st.Error != "" {
		p.errColor.Fprintf(p.out, "✗ %s\n", st.Error)
	}
}

// PrintSuccess outputs a one-line confirmation.
func (p *Printer) PrintSuccess(msg string) {
	p.okColor.Fprintf(p.out, "✓ %s\n", msg) //nolint:errcheck
}

// PrintHint outputs a dimmed hint line.
func (p *Printer) PrintHint(msg string) {
	p.dimColor.Fprintln(p.out, msg) //nolint:errcheck
}
