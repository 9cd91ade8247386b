package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/secretgarden/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing with the
// people who operate the sites.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := Summarize(report)

	w.writeHeader(md, report)
	w.writeSummary(md, summary)
	w.writeSites(md, report)
	w.writeWarnings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	buildDir := report.BuildDir
	if buildDir == "" {
		buildDir = "(analysis only)"
	}

	md.H1("SecretGarden Run Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Configuration", "`" + report.ConfigPath + "`"},
			{"Build Directory", buildDir},
			{"Common PIN filter", denylistStatus(report)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the totals, the exit chart and an overall alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Sites", strconv.Itoa(s.Sites)},
			{"Sequences requested", formatCount(s.Requested)},
			{"Sequences produced", formatCount(s.Produced)},
			{"Warnings", strconv.Itoa(s.Warnings)},
		},
	})
	md.PlainText("")

	if len(s.Exits) > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of allocation exit reasons.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Allocation Outcome per Site"),
		piechart.WithShowData(true),
	)
	for _, name := range s.exitNames() {
		chart.LabelAndIntValue(name, uint64(s.Exits[name])) //nolint:gosec // Counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	infeasible := s.Exits[model.ExitInfeasible.String()]
	short := s.Requested - s.Produced

	switch {
	case infeasible > 0:
		md.Cautionf("%d site(s) cannot hold any secret sequence with their current menu and tripwires.", infeasible)
	case s.Exits[model.ExitCancelled.String()] > 0:
		md.Warningf("The run was cancelled, %s sequence(s) are missing.", formatCount(short))
	case short > 0 && s.Produced > 0:
		md.Warningf("%s requested sequence(s) could not be generated.", formatCount(short))
	case s.Warnings > 0:
		md.Importantf("%d warning(s) were raised, see below.", s.Warnings)
	case s.Produced == 0:
		md.Note("No sequences were generated in this run.")
	default:
		md.Tip("Every site received its full sequence pool.")
	}
	md.PlainText("")
}

// writeSites writes the site overview table and a details block per site.
func (w *MarkdownWriter) writeSites(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Sites")
	md.PlainText("")

	if len(report.Sites) == 0 {
		md.PlainText("No public sites.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Sites))
	for _, site := range report.Sites {
		produced, exit := "-", "-"
		if site.Pool != nil {
			produced = formatCount(site.Pool.Produced) + " / " + formatCount(site.Pool.Requested)
			exit = site.Pool.Exit
		}
		rows = append(rows, []string{
			"`" + site.Domain + "`",
			strconv.Itoa(site.MenuSize),
			strconv.Itoa(site.TripwireCount),
			strconv.Itoa(site.Length),
			strconv.Itoa(site.Window),
			formatProbability(site.Estimate.Single),
			formatProbability(site.Estimate.Session),
			produced,
			exit,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Pages", "Tripwires", "L", "W", "P(single)", "P(session)", "Sequences", "Outcome"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, site := range report.Sites {
		if len(site.Estimate.Steps) == 0 {
			continue
		}
		md.Details(site.Domain+" per-step discovery", stepTable(site.Estimate.Steps))
	}
	md.PlainText("")
}

// stepTable renders the per-step series as a plain Markdown table.
func stepTable(steps []model.Step) string {
	var sb strings.Builder
	sb.WriteString("| Step | Survival | P(hit) |\n|---:|---:|---:|\n")
	for _, s := range steps {
		fmt.Fprintf(&sb, "| %d | %.6f | %.3g |\n", s.Index, s.Survival, s.Probability)
	}
	return sb.String()
}

// writeWarnings lists every diagnostic of the run.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, report *model.RunReport) {
	warnings := report.AllWarnings()
	if len(warnings) == 0 {
		return
	}

	md.H2("Warnings")
	md.PlainText("")
	items := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		items = append(items, warning.String())
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by secretgarden*")
}
