package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/secretgarden/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections without content are shown.
	showEmpty bool

	// verbose adds the per-step discoverability series of every site.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeSites(&sb, report)
	w.writeWarnings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       SECRETGARDEN RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:         %s\n", report.RunID)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Configuration:  %s\n", report.ConfigPath)
	if report.BuildDir != "" {
		fmt.Fprintf(sb, "Build Dir:      %s\n", report.BuildDir)
	} else {
		sb.WriteString("Build Dir:      (analysis only)\n")
	}
	fmt.Fprintf(sb, "Common PINs:    %s\n", denylistStatus(report))
	sb.WriteString("\n")
}

// writeSummary writes the totals over all sites.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	s := Summarize(report)
	w.section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Sites:      %d\n", s.Sites)
	fmt.Fprintf(sb, "  Requested:  %s sequences\n", formatCount(s.Requested))
	fmt.Fprintf(sb, "  Produced:   %s sequences\n", formatCount(s.Produced))
	fmt.Fprintf(sb, "  Warnings:   %d\n", s.Warnings)
	if s.WorstDomain != "" {
		fmt.Fprintf(sb, "  Highest per-session discovery: %s on %s\n", formatProbability(s.WorstSession), s.WorstDomain)
	}
	for _, name := range s.exitNames() {
		fmt.Fprintf(sb, "  [%s] %d site(s)\n", name, s.Exits[name])
	}
	sb.WriteString("\n")
}

// writeSites writes one block per site.
func (w *SimpleWriter) writeSites(sb *strings.Builder, report *model.RunReport) {
	if len(report.Sites) == 0 && !w.showEmpty {
		return
	}
	w.section(sb, "SITES")

	if len(report.Sites) == 0 {
		sb.WriteString("  No public sites\n\n")
		return
	}

	for _, site := range report.Sites {
		fmt.Fprintf(sb, "[+] %s\n", site.Domain)
		fmt.Fprintf(sb, "    Menu pages: %d   Tripwires: %d   Length: %d   Window: %d\n",
			site.MenuSize, site.TripwireCount, site.Length, site.Window)
		fmt.Fprintf(sb, "    P(single guess):  %s\n", formatProbability(site.Estimate.Single))
		fmt.Fprintf(sb, "    P(session):       %s\n", formatProbability(site.Estimate.Session))

		if site.Pool != nil {
			fmt.Fprintf(sb, "    Sequences: %s of %s (%s attempts, %s rejected as common, %s)\n",
				formatCount(site.Pool.Produced), formatCount(site.Pool.Requested),
				formatCount(site.Pool.Attempts), formatCount(site.Pool.DenylistRejections), site.Pool.Exit)
		} else {
			fmt.Fprintf(sb, "    Sequences: %s requested (not generated)\n", formatCount(site.SequencesPerSite))
		}

		if w.verbose && len(site.Estimate.Steps) > 0 {
			sb.WriteString("    Step  Survival   P(hit)\n")
			for _, step := range site.Estimate.Steps {
				fmt.Fprintf(sb, "    %4d  %.6f  %.3g\n", step.Index, step.Survival, step.Probability)
			}
		}
		sb.WriteString("\n")
	}
}

// writeWarnings lists every diagnostic of the run.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, report *model.RunReport) {
	warnings := report.AllWarnings()
	if len(warnings) == 0 && !w.showEmpty {
		return
	}
	w.section(sb, "WARNINGS")

	if len(warnings) == 0 {
		sb.WriteString("  No warnings\n\n")
		return
	}
	for _, warning := range warnings {
		fmt.Fprintf(sb, "  [!] %s\n", warning.String())
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by secretgarden\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
